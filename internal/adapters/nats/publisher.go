package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

const (
	StreamName        = "ZONE_ASSIGNMENTS"
	AssignmentSubject = "zones.assignments"
	CompletedSubject  = "zones.completed"
)

// AssignmentMessage carries one buffer polygon.
type AssignmentMessage struct {
	Folder       string            `json:"folder"`
	BoundaryID   string            `json:"boundary_id"`
	Street       string            `json:"street"`
	Letter       *string           `json:"letter"`
	LengthMeters float64           `json:"length_m"`
	Geometry     *geojson.Geometry `json:"geometry"`
}

// CompletedMessage closes the assignments of one boundary.
type CompletedMessage struct {
	RunID      string           `json:"run_id,omitempty"`
	Folder     string           `json:"folder"`
	BoundaryID string           `json:"boundary_id"`
	Stats      domain.ZoneStats `json:"stats"`
}

// SubjectToken makes a folder title usable as a single subject token.
func SubjectToken(title string) string {
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_", "\t", "_")
	if t := r.Replace(title); t != "" {
		return t
	}
	return "_"
}

// CompletedSubjectFor returns the completion subject of one folder, or of every folder
// when folder is empty.
func CompletedSubjectFor(folder string) string {
	if folder == "" {
		return CompletedSubject + ".>"
	}
	return CompletedSubject + "." + SubjectToken(folder)
}

// Messages builds the assignment messages of res followed by its completion message.
// Message ids are <run>/<boundary>/<index>, so the stream drops a zone republished by a
// retry of the same run but never the zones of another run. Zones without a RunID get
// no id.
func Messages(res *domain.ZoneResult) ([]*nats.Msg, error) {
	token := SubjectToken(res.Folder())
	msgs := make([]*nats.Msg, 0, len(res.Buffers)+1)
	msg := func(subject, id string, data []byte) *nats.Msg {
		m := nats.NewMsg(subject)
		m.Data = data
		if res.RunID != "" {
			m.Header.Set(nats.MsgIdHdr, res.RunID+"/"+res.Boundary.ID+"/"+id)
		}
		return m
	}
	for i, b := range res.Buffers {
		data, err := json.Marshal(AssignmentMessage{
			Folder:       b.Folder,
			BoundaryID:   res.Boundary.ID,
			Street:       b.Street,
			Letter:       b.Label,
			LengthMeters: b.LengthMeters,
			Geometry:     geojson.NewGeometry(orb.Polygon{b.Ring}),
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg(AssignmentSubject+"."+token, strconv.Itoa(i), data))
	}

	data, err := json.Marshal(CompletedMessage{RunID: res.RunID, Folder: res.Folder(), BoundaryID: res.Boundary.ID, Stats: res.Stats})
	if err != nil {
		return nil, err
	}
	return append(msgs, msg(CompletedSubject+"."+token, "completed", data)), nil
}

// Publisher implements ports.Publisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{AssignmentSubject + ".>", CompletedSubject + ".>"},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// stream may already exist
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishZone publishes every buffer of res, then the completion message.
func (p *Publisher) PublishZone(ctx context.Context, res *domain.ZoneResult) error {
	msgs, err := Messages(res)
	if err != nil {
		return fmt.Errorf("encode zone %q: %w", res.Folder(), err)
	}
	for _, m := range msgs {
		if _, err := p.js.PublishMsg(m, nats.Context(ctx)); err != nil {
			return fmt.Errorf("publish %s: %w", m.Subject, err)
		}
	}
	return nil
}

// SubscribeCompleted hands the payload of every completion message of folder to fn
// until the returned func is called. An empty folder selects every folder.
func (p *Publisher) SubscribeCompleted(folder string, fn func(data []byte)) (func(), error) {
	subject := CompletedSubjectFor(folder)
	sub, err := p.conn.Subscribe(subject, func(m *nats.Msg) {
		fn(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Connected reports whether the connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
