package model

import "testing"

// TestFormatBytes проверяет человекочитаемое форматирование размера.
func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"неизвестный размер", 0, "Unknown"},
		{"отрицательный размер", -1, "Unknown"},
		{"байты", 512, "512 Bytes"},
		{"килобайты", 2048, "2 KB"},
		{"15 мегабайт", 15728640, "15 MB"},
		{"дробные мегабайты", 1572864, "1.5 MB"},
		{"гигабайты", 3221225472, "3 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, ожидался %q", tt.bytes, got, tt.want)
			}
		})
	}
}

// TestFormatDuration проверяет форматирование длительности в M:SS.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"неизвестная длительность", 0, "Unknown"},
		{"меньше минуты", 42, "0:42"},
		{"минуты и секунды", 125, "2:05"},
		{"дробные секунды отбрасываются", 61.9, "1:01"},
		{"больше часа", 3725, "62:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, ожидался %q", tt.seconds, got, tt.want)
			}
		})
	}
}

// TestValidateURL проверяет синтаксическую валидацию URL.
func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/video123",
		"http://youtube.com/watch?v=abc",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, ожидался nil", u, err)
		}
	}

	invalid := []string{
		"",
		"not a url",
		"ftp://example.com/file",
		"/relative/path",
	}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, ожидалась ошибка", u)
		}
	}
}
