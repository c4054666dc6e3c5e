package statsd

import (
	"net"
	"strings"
	"testing"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "console"}
	tests := map[string]string{
		" job/metric ": "console.job_metric",
		"watch.event":  "console.watch.event",
		"":             "console",
	}
	for input, want := range tests {
		if got := c.metricName(input); got != want {
			t.Fatalf("metricName(%q) = %q, want %q", input, got, want)
		}
	}

	bare := &Client{}
	if got := bare.metricName("watch.event"); got != "watch.event" {
		t.Fatalf("metricName without prefix = %q", got)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	got := formatTags(map[string]string{
		"kind":   "index-run",
		"result": " success ",
		"":       "ignored",
	})
	want := "|#kind:index-run,result:success"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := formatTags(nil); got != "" {
		t.Fatalf("formatTags(nil) = %q, want empty string", got)
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{
		enabled: true,
		conn:    clientConn,
	}

	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}

	// Verify Close can be called again without error.
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Enabled: true,
		Address: "   ",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{
		Enabled: true,
		Address: "bad address",
	})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
