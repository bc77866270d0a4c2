package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"keystone/models"
)

const deliveryTimeout = 10 * time.Second

// Notifier forwards leads to the CRM webhook in the background.
// Delivery is at most once: a full queue or a failed POST drops the lead
// and only logs it.
type Notifier struct {
	url     string
	formKey string
	client  *http.Client

	mu     sync.Mutex
	closed bool
	queue  chan models.Lead
	wg     sync.WaitGroup
}

type crmPayload struct {
	FormKey string      `json:"formKey"`
	Lead    models.Lead `json:"lead"`
}

func NewNotifier(url, formKey string, queueSize int, client *http.Client) *Notifier {
	if queueSize <= 0 {
		queueSize = 64
	}
	if client == nil {
		client = &http.Client{Timeout: deliveryTimeout}
	}
	n := &Notifier{
		url:     url,
		formKey: formKey,
		client:  client,
		queue:   make(chan models.Lead, queueSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Notify queues lead without blocking. It reports whether the lead was queued.
func (n *Notifier) Notify(lead models.Lead) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	select {
	case n.queue <- lead:
		return true
	default:
		zap.S().Warnw("CRM queue full, dropping lead", "lead_id", lead.ID)
		return false
	}
}

// Close stops accepting leads and waits for queued ones to be sent.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for lead := range n.queue {
		if err := n.deliver(lead); err != nil {
			zap.S().Warnw("failed to forward lead to CRM", "lead_id", lead.ID, "error", err)
		}
	}
}

func (n *Notifier) deliver(lead models.Lead) error {
	body, err := json.Marshal(crmPayload{FormKey: n.formKey, Lead: lead})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("CRM webhook returned %s", resp.Status)
	}
	zap.S().Debugw("Forwarded lead to CRM", "lead_id", lead.ID)
	return nil
}
