package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

// TextTable resolves Message keys to text.
type TextTable interface {
	Text(path string, localized bool, key string) (string, error)
	SetText(path string, localized bool, key, text string) error
}

// ErrNoTextTable indicates a message lookup without an attached TextTable.
var ErrNoTextTable = fmt.Errorf("engine: no text table: %w", types.ErrUnresolved)

// SetTextTable attaches the text source used by MessageText.
func (t *Types) SetTextTable(tt TextTable) { t.text = tt }

// MessageText returns the text behind a Message field.
func (t *Types) MessageText(rid types.RecordID, fid string) (string, error) {
	f, err := lookup[*MessageField](t, rid, fid)
	if err != nil {
		return "", err
	}
	if f.value == "" {
		return "", nil
	}
	if t.text == nil {
		return "", ErrNoTextTable
	}
	return t.text.Text(f.desc.Path, f.desc.Localized, f.value)
}

// SetMessageText stores text under the field's key.
func (t *Types) SetMessageText(rid types.RecordID, fid, text string) error {
	f, err := lookup[*MessageField](t, rid, fid)
	if err != nil {
		return err
	}
	if f.value == "" {
		return fmt.Errorf("%s.%s has no key: %w", rid, fid, ErrValueRequired)
	}
	if t.text == nil {
		return ErrNoTextTable
	}
	return t.text.SetText(f.desc.Path, f.desc.Localized, f.value, text)
}
