package main

import (
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "export": false, "sweep": false, "migrate": false, "audit": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}

func TestExportFlagsDefaults(t *testing.T) {
	flag := exportCmd.Flags().Lookup("langcode")
	if flag == nil || flag.DefValue != "en" {
		t.Fatalf("unexpected langcode flag %+v", flag)
	}
}
