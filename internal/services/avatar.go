package services

import (
	"math/rand"
	"os"
	"sort"
)

// AvatarPicker hands out avatar file names from a directory listed once at
// startup.
type AvatarPicker struct {
	files []string
}

// NewAvatarPicker lists dir. A missing or unreadable directory yields a
// picker that always returns "".
func NewAvatarPicker(dir string) *AvatarPicker {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &AvatarPicker{}
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return &AvatarPicker{files: files}
}

func NewStaticAvatarPicker(files ...string) *AvatarPicker {
	return &AvatarPicker{files: files}
}

func (p *AvatarPicker) Pick() string {
	if p == nil || len(p.files) == 0 {
		return ""
	}
	return p.files[rand.Intn(len(p.files))]
}

func (p *AvatarPicker) Files() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.files...)
}
