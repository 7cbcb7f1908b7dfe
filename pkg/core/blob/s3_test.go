package blob

import (
	"regexp"
	"testing"
)

func TestObjectKeyShape(t *testing.T) {
	key := ObjectKey("technical-reports", "Coyote Gold Corp.", "DOC-1", "pdf")

	want := regexp.MustCompile(`^technical-reports/Coyote_Gold_Corp/DOC-1_\d+\.pdf$`)
	if !want.MatchString(key) {
		t.Errorf("key = %q does not match expected shape", key)
	}
}

func TestObjectKeySanitizesEntity(t *testing.T) {
	key := ObjectKey("technical-reports", "  ///  ", "DOC-2", "pdf")
	want := regexp.MustCompile(`^technical-reports/unknown/DOC-2_\d+\.pdf$`)
	if !want.MatchString(key) {
		t.Errorf("key = %q, empty entity should fall back to unknown", key)
	}
}
