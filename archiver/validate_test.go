package archiver_test

import (
	"testing"

	"arkive/archiver"

	"github.com/stretchr/testify/assert"
)

func TestIsArchivableURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1#frag",
		"  https://example.com/trailing-space  ",
		"HTTPS://EXAMPLE.COM/",
		"https://sub.domain.example.co.uk/a/b",
		"https://user.github.io/project",
		"https://пример.рф/",
		"http://93.184.216.34/",
		"https://example.com:8443/",
	}
	for _, in := range valid {
		assert.True(t, archiver.IsArchivableURL(in), "expected %q to be archivable", in)
	}

	invalid := []string{
		"",
		"not a url",
		"example.com",
		"/etc/passwd",
		"./relative/path",
		"README.md",
		"file:///etc/passwd",
		"ftp://example.com/file",
		"mailto:someone@example.com",
		"https://",
		"https:example.com",
		"http://localhost:3000/",
		"http://app.localhost/",
		"http://127.0.0.1/",
		"http://10.0.0.8/",
		"http://192.168.1.1/",
		"http://[::1]/",
		"http://0.0.0.0/",
		"http://intranet/",
		"http://example.123/",
		"http://exa_mple.com/",
	}
	for _, in := range invalid {
		assert.False(t, archiver.IsArchivableURL(in), "expected %q to be rejected", in)
	}
}
