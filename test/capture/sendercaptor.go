// Package capture provides test doubles recording what the bot sends
package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexandre-normand/eurekabot"
)

// SenderCaptor is a eurekabot.Sender holding the activities sent to it in order
type SenderCaptor struct {
	mu             sync.Mutex
	SentActivities []*eurekabot.Activity
	calls          int
	failWith       error
}

// NewSender returns a new initialized SenderCaptor instance
func NewSender() (sc *SenderCaptor) {
	sc = new(SenderCaptor)
	sc.SentActivities = make([]*eurekabot.Activity, 0)

	return sc
}

// NewFailingSender returns a SenderCaptor failing every send with err
func NewFailingSender(err error) (sc *SenderCaptor) {
	sc = NewSender()
	sc.failWith = err

	return sc
}

// SendActivities captures the activities. Each sent activity gets a sequential ID
func (sc *SenderCaptor) SendActivities(ctx context.Context, activities []*eurekabot.Activity) (sent []*eurekabot.Activity, err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.calls++
	if sc.failWith != nil {
		return nil, sc.failWith
	}

	sent = make([]*eurekabot.Activity, 0, len(activities))
	for _, a := range activities {
		if a.ID == "" {
			a.ID = fmt.Sprintf("sent-%d", len(sc.SentActivities)+1)
		}
		sc.SentActivities = append(sc.SentActivities, a)
		sent = append(sent, a)
	}

	return sent, nil
}

// Calls returns the number of calls to SendActivities
func (sc *SenderCaptor) Calls() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.calls
}

// Texts returns the text of every sent activity
func (sc *SenderCaptor) Texts() (texts []string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	texts = make([]string, 0, len(sc.SentActivities))
	for _, a := range sc.SentActivities {
		texts = append(texts, a.Text)
	}

	return texts
}
