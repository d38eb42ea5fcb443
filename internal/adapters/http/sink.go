package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/arcana/internal/domain"
)

const headerHand = "X-Tarot-Hand"

// streamSink writes fragments to the response as plain text. Status and
// headers are sent with the first fragment, so a failure before any text
// arrives can still be answered with a JSON error.
type streamSink struct {
	c         echo.Context
	rc        *http.ResponseController
	hand      domain.Hand
	writeIdle time.Duration
	committed bool
}

func newStreamSink(c echo.Context, hand domain.Hand, writeIdle time.Duration) *streamSink {
	return &streamSink{
		c:         c,
		rc:        http.NewResponseController(c.Response()),
		hand:      hand,
		writeIdle: writeIdle,
	}
}

func (s *streamSink) commit() {
	if s.committed {
		return
	}
	s.committed = true

	h := s.c.Response().Header()
	h.Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	if raw, err := json.Marshal(toHandHeader(s.hand)); err == nil {
		h.Set(headerHand, string(raw))
	}
	s.c.Response().WriteHeader(http.StatusOK)
}

func (s *streamSink) WriteFragment(text string) error {
	s.commit()
	if s.writeIdle > 0 {
		err := s.rc.SetWriteDeadline(time.Now().Add(s.writeIdle))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	if _, err := io.WriteString(s.c.Response(), text); err != nil {
		return err
	}
	s.c.Response().Flush()
	return nil
}
