package postgres

import (
	"testing"
	"time"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/conv"
)

func TestJSONMapScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    JSONMap
		wantErr bool
	}{
		{name: "bytes", src: []byte(`{"ram":"16GB"}`), want: JSONMap{"ram": "16GB"}},
		{name: "string", src: `{"cpu":"m3"}`, want: JSONMap{"cpu": "m3"}},
		{name: "null", src: nil, want: nil},
		{name: "unsupported", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m JSONMap
			err := m.Scan(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan err = %v", err)
			}
			if len(m) != len(tt.want) {
				t.Fatalf("Scan = %v, want %v", m, tt.want)
			}
			for k, v := range tt.want {
				if m[k] != v {
					t.Errorf("m[%s] = %v, want %v", k, m[k], v)
				}
			}
		})
	}
}

func TestInt64sValue(t *testing.T) {
	v, err := Int64s(nil).Value()
	if err != nil || string(v.([]byte)) != "[]" {
		t.Errorf("nil Value = %s, %v", v, err)
	}
	var s Int64s
	if err := s.Scan([]byte("[3,1,2]")); err != nil || len(s) != 3 || s[0] != 3 {
		t.Errorf("Scan = %v, %v", s, err)
	}
}

func TestChoiceConversion(t *testing.T) {
	uid := int64(7)
	rec := &core.AuditRecord{
		QueryID:          "q-1",
		UserID:           &uid,
		QueryText:        "laptop",
		SelectedItemIDs:  []int64{4, 2},
		AlgorithmVersion: core.AlgorithmVersion,
		ProcessingTimeMS: 12,
		CreatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	back := choiceFromDomain(rec).toDomain()
	if back.QueryID != rec.QueryID || *back.UserID != 7 || len(back.SelectedItemIDs) != 2 || back.ProcessingTimeMS != 12 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestItemAvailabilityMapping(t *testing.T) {
	row := itemFromDomain(&core.Item{ID: 1, Price: conv.Ptr(10.0), Available: true})
	if !row.IsAvailable || *row.Price != 10 {
		t.Errorf("row = %+v", row)
	}
	if it := (&Item{ID: 2}).toDomain(); it.Available || it.Price != nil {
		t.Errorf("item = %+v", it)
	}
}
