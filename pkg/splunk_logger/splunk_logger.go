package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const PayloadsLimit = 1000

// SplunkLogger forwards log events to a Splunk HTTP Event Collector. Events
// are queued in memory and sent in one batch by Flush. The process requesting
// its own termination is short-lived, so there is no background sender, the
// caller flushes once before exiting.
type SplunkLogger struct {
	client   *http.Client
	url      string
	token    string
	source   string
	hostname string

	m        sync.Mutex
	payloads []*SplunkPayload
}

type SplunkPayload struct {
	// splunk expects unix time in seconds
	Time  int64       `json:"time"`
	Host  string      `json:"host"`
	Event SplunkEvent `json:"event"`
}

type SplunkEvent struct {
	Message string `json:"message"`
	Ident   string `json:"ident"`
	Host    string `json:"host"`
}

func NewSplunkLogger(url, token, source, hostname string) *SplunkLogger {
	return &SplunkLogger{
		client:   retryablehttp.NewClient().StandardClient(),
		url:      url,
		token:    token,
		source:   source,
		hostname: hostname,
	}
}

// LogWithTime queues a single event for the next Flush.
func (sl *SplunkLogger) LogWithTime(t time.Time, msg string) error {
	sp := SplunkPayload{
		Time: t.Unix(),
		Host: sl.hostname,
		Event: SplunkEvent{
			Message: msg,
			Ident:   sl.source,
			Host:    sl.hostname,
		},
	}

	sl.m.Lock()
	defer sl.m.Unlock()
	if len(sl.payloads) >= PayloadsLimit {
		return fmt.Errorf("Error queueing splunk payload, limit reached")
	}
	sl.payloads = append(sl.payloads, &sp)
	return nil
}

// Flush sends all queued events. Queued events are dropped even when sending
// fails, a terminating instance gets no second chance anyway.
func (sl *SplunkLogger) Flush() error {
	sl.m.Lock()
	payloads := sl.payloads
	sl.payloads = nil
	sl.m.Unlock()

	return sl.sendPayloads(payloads)
}

func (sl *SplunkLogger) sendPayloads(payloads []*SplunkPayload) error {
	if len(payloads) == 0 {
		return nil
	}

	buf := bytes.NewBuffer(nil)
	for _, pl := range payloads {
		b, err := json.Marshal(pl)
		if err != nil {
			return err
		}

		_, err = buf.Write(b)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequest("POST", sl.url, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Splunk %s", sl.token))

	res, err := sl.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		buf := bytes.Buffer{}
		_, err = buf.ReadFrom(res.Body)
		if err != nil {
			return fmt.Errorf("Error forwarding to splunk: parsing response failed: %v", err)
		}
		return fmt.Errorf("Error forwarding to splunk: %s", buf.String())
	}
	return nil
}
