package config

import (
	"errors"
	"testing"

	"github.com/san-kum/velcmd/internal/batch"
)

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range ParamNames() {
		if err := cfg.SetParam(name, 0.25); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if cfg.Command.HeadingGain != 0.25 || cfg.Plant.Tau != 0.25 || cfg.Command.Ranges.AngVelZ.Max != 0.25 {
		t.Errorf("expected tunables to be set, got %+v", cfg.Command)
	}

	if err := cfg.SetParam("gravity", 9.8); !errors.Is(err, batch.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestClone_Independent(t *testing.T) {
	orig := GetPreset("hero_dragon", "train")
	c := orig.Clone()
	c.Command.Ranges.Heading.Max = 0
	c.Frames["extra"] = identityFrame
	c.NumAgents = 1

	if orig.Command.Ranges.Heading.Max == 0 {
		t.Error("clone shares heading range")
	}
	if _, ok := orig.Frames["extra"]; ok {
		t.Error("clone shares frames")
	}
	if orig.NumAgents == 1 {
		t.Error("clone shares scalar fields")
	}
}
