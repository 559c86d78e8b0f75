package notify

import (
	"bytes"
	"strings"
	"testing"

	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
)

func TestWriterTagsSeverity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)

	w.Notify(pkgerrors.SeveritySuccess, "Sale #42 successful")
	w.Notify(pkgerrors.SeverityWarning, "only 2 units of Milk available")

	out := buf.String()
	if !strings.Contains(out, "[SUCCESS] Sale #42 successful") {
		t.Errorf("missing success line: %q", out)
	}
	if !strings.Contains(out, "[WARNING] only 2 units of Milk available") {
		t.Errorf("missing warning line: %q", out)
	}
}

func TestNotifyErrorUsesTaxonomy(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)

	NotifyError(w, pkgerrors.New(pkgerrors.CodeStockConflict, "Milk is out of stock"))
	if !strings.Contains(buf.String(), "[WARNING] Milk is out of stock") {
		t.Errorf("coded error not mapped: %q", buf.String())
	}
}

func TestNotifyErrorHidesUncodedCause(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)

	NotifyError(w, errFake("password=hunter2 leaked"))
	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("uncoded cause leaked to display: %q", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Errorf("uncoded error not shown as error: %q", out)
	}
}

func TestNotifyErrorNilSafe(t *testing.T) {
	NotifyError(nil, errFake("x"))
	var buf bytes.Buffer
	NotifyError(NewWriter(&buf, nil), nil)
	if buf.Len() != 0 {
		t.Errorf("nil error produced output: %q", buf.String())
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }
