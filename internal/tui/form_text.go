package tui

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/charmbracelet/bubbles/textarea"
)

// formModel edits a record body as a JSON object.
type formModel struct {
	body       textarea.Model
	collection string
	id         string
	editing    bool
	submitting bool
}

func newFormModel(collection string, item *models.Record) formModel {
	body := textarea.New()
	body.SetWidth(60)
	body.SetHeight(12)
	body.ShowLineNumbers = false
	body.Focus()

	m := formModel{body: body, collection: collection}
	if item == nil {
		m.body.SetValue("{\n  \n}")
		return m
	}

	m.editing = true
	m.id = item.ID
	data := maps.Clone(item.Data)
	delete(data, "id")
	raw, err := json.MarshalIndent(data, "", "  ")
	if err == nil {
		m.body.SetValue(string(raw))
	}
	return m
}

// data parses the body. An empty object is allowed; anything that is not
// a JSON object is not.
func (m formModel) data() (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(m.body.Value()), &data); err != nil {
		return nil, fmt.Errorf("parse record body: %w", err)
	}
	if data == nil {
		return nil, errEmptyRecordBody
	}
	return data, nil
}

func (m formModel) View() string {
	title := "NEW RECORD IN " + m.collection
	if m.editing {
		title = "EDIT " + m.collection + "/" + m.id
	}

	data := m.body.View()
	if m.submitting {
		data += "\n\nSaving..."
	}
	return renderPage(title, data, "ctrl+s save  esc cancel")
}
