package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/runledger/runledger/internal/transport"
	"github.com/runledger/runledger/pkg/errors"
)

// hecEvent is the Splunk HTTP Event Collector envelope for one row.
type hecEvent struct {
	Event      map[string]any `json:"event"`
	Sourcetype string         `json:"sourcetype"`
	Source     string         `json:"source"`
}

// Sourcetype tags every streamed event so downstream pipelines can
// route running data without inspecting the payload.
const Sourcetype = "running_data"

// Streamer sends table contents to an HTTP event endpoint.
type Streamer struct {
	reader   *Reader
	client   *transport.Client
	endpoint string
	log      *zerolog.Logger
}

// NewStreamer builds a streamer for a plain NDJSON endpoint. The token
// is optional; when present it is sent as a Bearer credential.
func NewStreamer(reader *Reader, endpoint, token string, log *zerolog.Logger) *Streamer {
	return &Streamer{
		reader:   reader,
		client:   transport.New(&transport.BearerAuth{}, token),
		endpoint: endpoint,
		log:      log,
	}
}

// NewHECStreamer builds a streamer for a Splunk-compatible HEC endpoint.
// HEC requires a token; a missing one is a configuration error reported
// before anything is sent.
func NewHECStreamer(reader *Reader, endpoint, token string, log *zerolog.Logger) (*Streamer, error) {
	if token == "" {
		return nil, errors.NewConfigError("hec", "token required", errors.ErrTokenRequired)
	}
	return &Streamer{
		reader:   reader,
		client:   transport.New(&transport.SplunkAuth{}, token),
		endpoint: endpoint,
		log:      log,
	}, nil
}

// SendNDJSON streams each table as newline-delimited JSON, one POST per
// table, with routing metadata injected into every row.
func (s *Streamer) SendNDJSON(ctx context.Context, tables []string) error {
	return s.send(ctx, tables, func(dataset *Dataset) (io.Reader, error) {
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		for _, record := range dataset.Rows {
			event := make(map[string]any, len(record)+2)
			for column, value := range record {
				event[column] = value
			}
			event["_sourcetype"] = Sourcetype
			event["_source"] = dataset.Table
			if err := encoder.Encode(event); err != nil {
				return nil, errors.NewExportError("stream", dataset.Table, 0, err)
			}
		}
		return &buf, nil
	})
}

// SendHEC streams each table as one JSON array of HEC event envelopes.
func (s *Streamer) SendHEC(ctx context.Context, tables []string) error {
	return s.send(ctx, tables, func(dataset *Dataset) (io.Reader, error) {
		events := make([]hecEvent, 0, len(dataset.Rows))
		for _, record := range dataset.Rows {
			events = append(events, hecEvent{
				Event:      record,
				Sourcetype: Sourcetype,
				Source:     dataset.Table,
			})
		}
		body, err := json.Marshal(events)
		if err != nil {
			return nil, errors.NewExportError("hec", dataset.Table, 0, err)
		}
		return bytes.NewReader(body), nil
	})
}

func (s *Streamer) send(ctx context.Context, tables []string, encode func(*Dataset) (io.Reader, error)) error {
	for _, table := range tables {
		dataset, err := s.reader.Dataset(ctx, table)
		if err != nil {
			return err
		}
		if dataset.Empty() {
			s.log.Info().Str("table", table).Msg("Table empty, skipping")
			continue
		}

		body, err := encode(dataset)
		if err != nil {
			return err
		}

		resp, err := s.client.Post(ctx, s.endpoint, body)
		if err != nil {
			return errors.NewExportError("stream", table, 0, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return errors.NewExportError("stream", table, resp.StatusCode,
				errors.New(http.StatusText(resp.StatusCode)))
		}

		s.log.Info().Str("table", table).Int("events", len(dataset.Rows)).
			Int("status", resp.StatusCode).Msg("Sent events")
	}
	return nil
}
