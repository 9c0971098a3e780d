package models

import (
	"testing"
)

func TestClampPriority(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"below range", 0, 1},
		{"negative", -4, 1},
		{"lower bound", 1, 1},
		{"midpoint", 5, 5},
		{"upper bound", 9, 9},
		{"above range", 12, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPriority(tt.in); got != tt.want {
				t.Errorf("ClampPriority(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseShadowFolderName(t *testing.T) {
	tests := []struct {
		name     string
		folder   string
		wantID   string
		wantShad bool
	}{
		{"shadow folder", "__global_abc", "abc", true},
		{"prefix only", "__global_", "", false},
		{"regular folder", "Dinosaurs", "", false},
		{"prefix not at start", "my __global_abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseShadowFolderName(tt.folder)
			if id != tt.wantID || ok != tt.wantShad {
				t.Errorf("ParseShadowFolderName(%q) = (%q, %v), want (%q, %v)", tt.folder, id, ok, tt.wantID, tt.wantShad)
			}
		})
	}

	f := Folder{Name: ShadowFolderName("m1")}
	f.Derive()
	if !f.IsShadow || f.MasterFolderID != "m1" {
		t.Errorf("Derive() = %+v, want shadow folder for m1", f)
	}
}

func TestNormalizeKidName(t *testing.T) {
	if NormalizeKidName("  Alice ") != NormalizeKidName("alice") {
		t.Error("names differing only in case and whitespace should match")
	}
	if NormalizeKidName("Al ice") == NormalizeKidName("alice") {
		t.Error("inner whitespace should be significant")
	}
}

func TestIsValidFeedbackType(t *testing.T) {
	for _, valid := range []string{"text", "voice", "video", "screenshot"} {
		if !IsValidFeedbackType(valid) {
			t.Errorf("IsValidFeedbackType(%q) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"", "Text", "audio"} {
		if IsValidFeedbackType(invalid) {
			t.Errorf("IsValidFeedbackType(%q) = true, want false", invalid)
		}
	}
}

func TestVideoForKid(t *testing.T) {
	v := &Video{
		ID:       "v1",
		Assigned: map[string]bool{"k1": true, "k2": true},
		Progress: map[string]*Progress{"k1": {Watched: true}, "k2": {}},
	}

	got := v.ForKid("k1")
	if len(got.Assigned) != 1 || !got.Assigned["k1"] {
		t.Errorf("ForKid assigned = %v", got.Assigned)
	}
	if len(got.Progress) != 1 || !got.Progress["k1"].Watched {
		t.Errorf("ForKid progress = %v", got.Progress)
	}
	if len(v.Assigned) != 2 {
		t.Error("ForKid must not modify the original video")
	}
}
