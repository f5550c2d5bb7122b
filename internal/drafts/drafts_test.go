package drafts

import "testing"

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		raw    string
		want   string
	}{
		{
			name:   "relative path gets origin prefix",
			origin: "https://draftolio.gg",
			raw:    "/spectate/abc123",
			want:   "https://draftolio.gg/spectate/abc123",
		},
		{
			name:   "origin with trailing slash",
			origin: "https://draftolio.gg/",
			raw:    "/spectate/abc123",
			want:   "https://draftolio.gg/spectate/abc123",
		},
		{
			name:   "missing leading slash",
			origin: "https://draftolio.gg",
			raw:    "spectate/abc123",
			want:   "https://draftolio.gg/spectate/abc123",
		},
		{
			name:   "already absolute",
			origin: "https://draftolio.gg",
			raw:    "https://other.example/spectate/abc123",
			want:   "https://other.example/spectate/abc123",
		},
		{
			name:   "empty stays empty",
			origin: "https://draftolio.gg",
			raw:    "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.origin, tt.raw); got != tt.want {
				t.Errorf("AbsoluteURL(%q, %q) = %q, want %q", tt.origin, tt.raw, got, tt.want)
			}
		})
	}
}

func TestModesCoverKnownModes(t *testing.T) {
	modes := Modes()
	if len(modes) != 3 {
		t.Fatalf("expected 3 modes, got %d", len(modes))
	}

	byName := map[string]Mode{}
	for _, m := range modes {
		byName[m.Mode] = m
	}
	for _, want := range []string{"TOURNAMENT", "FEARLESS", "FULL_FEARLESS"} {
		m, ok := byName[want]
		if !ok {
			t.Errorf("missing mode %s", want)
			continue
		}
		if m.DisplayName == "" || m.Description == "" {
			t.Errorf("mode %s is missing display metadata", want)
		}
	}
}
