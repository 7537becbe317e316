package amqp

import (
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// RecapRequestMessage asks the worker to compute the recaps of a stored
// import. It carries only identifiers; records are read from the database.
type RecapRequestMessage struct {
	ID        string    `json:"id"`
	ImportID  int64     `json:"import_id"`
	Years     []int     `json:"years"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecapRequestMessage(importID int64, years []int) *RecapRequestMessage {
	return &RecapRequestMessage{
		ID:        uuid.NewString(),
		ImportID:  importID,
		Years:     append([]int(nil), years...),
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecapRequestMessage) Validate() error {
	if m.ImportID <= 0 {
		return errors.New("missing import id")
	}
	if len(m.Years) == 0 {
		return errors.New("no years requested")
	}
	return nil
}

func (m *RecapRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecapRequestMessageFromJSON decodes and validates a message body.
func RecapRequestMessageFromJSON(data []byte) (*RecapRequestMessage, error) {
	var msg RecapRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
