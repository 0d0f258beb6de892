package main

import "github.com/rushteam/hybridrec/internal/cmd"

func main() {
	cmd.Execute()
}
