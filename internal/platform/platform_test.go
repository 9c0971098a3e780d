package platform

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMatch bool
		platform  string
		videoID   string
	}{
		{"youtu.be short", "https://youtu.be/abc123", true, YouTube, "abc123"},
		{"youtu.be with query", "https://youtu.be/abc123?t=42", true, YouTube, "abc123"},
		{"youtu.be empty path", "https://youtu.be/", false, "", ""},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true, YouTube, "dQw4w9WgXcQ"},
		{"mobile watch url", "https://m.youtube.com/watch?v=xyz&list=PL1", true, YouTube, "xyz"},
		{"uppercase host", "https://WWW.YOUTUBE.COM/watch?v=up", true, YouTube, "up"},
		{"shorts", "https://youtube.com/shorts/short1", true, YouTube, "short1"},
		{"embed", "https://www.youtube.com/embed/emb1", true, YouTube, "emb1"},
		{"youtube channel page", "https://www.youtube.com/@channel", false, "", ""},
		{"youtube empty v", "https://www.youtube.com/watch?v=", false, "", ""},
		{"tiktok video", "https://www.tiktok.com/@user/video/7234567890123456789", true, TikTok, "7234567890123456789"},
		{"mobile tiktok video", "https://m.tiktok.com/v/video/123", true, TikTok, "123"},
		{"tiktok non-numeric id", "https://www.tiktok.com/@user/video/abc", false, "", ""},
		{"tiktok profile", "https://www.tiktok.com/@user", false, "", ""},
		{"vm short link", "https://vm.tiktok.com/ZMabc123/", false, "", ""},
		{"vt short link", "https://vt.tiktok.com/ZSabc/", false, "", ""},
		{"t short link", "https://www.tiktok.com/t/ZTRabc/", false, "", ""},
		{"other host", "https://vimeo.com/12345", false, "", ""},
		{"no scheme", "youtu.be/abc123", false, "", ""},
		{"garbage", "::not a url::", false, "", ""},
		{"empty", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Classify(tt.input)
			if ok != tt.wantMatch {
				t.Fatalf("Classify(%q) matched = %v, want %v", tt.input, ok, tt.wantMatch)
			}
			if m.Platform != tt.platform || m.VideoID != tt.videoID {
				t.Errorf("Classify(%q) = %+v, want {%s %s}", tt.input, m, tt.platform, tt.videoID)
			}
		})
	}
}

func TestIsTikTokShortLink(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://vm.tiktok.com/ZMabc123/", true},
		{"https://vt.tiktok.com/ZSabc/", true},
		{"https://www.tiktok.com/t/ZTRabc/", true},
		{"https://tiktok.com/t/ZTRabc", true},
		{"https://www.tiktok.com/@user/video/123", false},
		{"https://youtu.be/abc", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := IsTikTokShortLink(tt.input); got != tt.want {
			t.Errorf("IsTikTokShortLink(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
