package core

import "testing"

func TestNewCandidateClips(t *testing.T) {
	if c := NewCandidate(1, SignalSemantic, 1.7); c.Scores.Semantic != 1 {
		t.Errorf("semantic = %v, want 1", c.Scores.Semantic)
	}
	if c := NewCandidate(1, SignalContent, -0.2); c.Scores.Content != 0 {
		t.Errorf("content = %v, want 0", c.Scores.Content)
	}
}

func TestScoreBreakdown(t *testing.T) {
	var s ScoreBreakdown
	s.Set(SignalSemantic, 0.8)
	s.Merge(ScoreBreakdown{Collaborative: 0.6})
	s.Merge(ScoreBreakdown{Semantic: 0.7})

	if s.Semantic != 0.7 || s.Collaborative != 0.6 || s.Content != 0 {
		t.Errorf("unexpected breakdown %+v", s)
	}
	if s.NonZero() != 2 {
		t.Errorf("NonZero = %d, want 2", s.NonZero())
	}
}

func TestDefaultPolicyValid(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	p.WeightContent = -1
	if err := p.Validate(); err == nil {
		t.Error("negative weight should be rejected")
	}
}

func TestUserProfile(t *testing.T) {
	p := NewUserProfile(9)
	if !p.IsEmpty() {
		t.Error("new profile should be empty")
	}
	p.Liked[1] = struct{}{}
	p.Purchased[2] = struct{}{}
	p.PreferredCategories = []int64{4}
	if p.IsEmpty() || !p.HasLiked(1) || p.HasLiked(2) || !p.PrefersCategory(4) {
		t.Errorf("unexpected profile state %+v", p)
	}
	if len(p.Engaged()) != 2 {
		t.Errorf("Engaged = %v", p.Engaged())
	}
	var nilProfile *UserProfile
	if !nilProfile.IsEmpty() || nilProfile.HasLiked(1) {
		t.Error("nil profile should behave as empty")
	}
}
