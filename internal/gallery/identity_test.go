package gallery

import "testing"

func TestIdentityFromPath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"alice.jpg", "alice"},
		{"John_Smith.png", "John Smith"},
		{"_padded_name_.jpeg", "padded name"},
		{"Jane_Doe/front.jpg", "Jane Doe"},
		{"Jane_Doe/2024/side.jpg", "Jane Doe"},
		{"./bob.jpg", "bob"},
		{"Zoé.jpg", "Zoé"},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := IdentityFromPath(tt.rel); got != tt.want {
				t.Errorf("IdentityFromPath(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestIsReferenceImage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"alice.jpg", true},
		{"alice.JPEG", true},
		{"dir/bob.png", true},
		{"representations_vgg-face_opencv.gob", false},
		{"representations_vgg_face.pkl", false},
		{".hidden.jpg", false},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReferenceImage(tt.name); got != tt.want {
				t.Errorf("IsReferenceImage(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("Zoé smith"); got != "ZOÉ SMITH" {
		t.Errorf("DisplayName() = %q", got)
	}
}
