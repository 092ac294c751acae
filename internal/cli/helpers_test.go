package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, c := range cases {
		if got := formatSize(c.in); got != c.want {
			t.Errorf("formatSize(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTail(t *testing.T) {
	if got := tail("abcdef", 4); got != "cdef" {
		t.Errorf("tail = %q, want cdef", got)
	}
	if got := tail("ab", 4); got != "ab" {
		t.Errorf("tail of short string = %q, want ab", got)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	content := "[printstash]\nserver_url = http://file.example\napi_key = filekey\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfgFile = path
	serverURL = "http://flag.example"
	apiKey = ""
	defer func() { cfgFile, serverURL, apiKey = "", "", "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://flag.example" {
		t.Errorf("ServerURL = %q, flag must win over file", cfg.ServerURL)
	}
	if cfg.APIKey != "filekey" {
		t.Errorf("APIKey = %q, file value must survive when no flag is set", cfg.APIKey)
	}
}
