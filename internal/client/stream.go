package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/creamcroissant/fpbrowser/internal/events"
)

// ErrStreamClosed 表示后端关闭了事件流。
var ErrStreamClosed = errors.New("client: event stream closed / 事件流已关闭")

// Stream 连接 GET /api/v1/events 并把每个事件交给 fn，直到 ctx 取消或连接断开。
// ready 非 nil 时在连接建立后被调用一次。
func (c *Client) Stream(ctx context.Context, ready func(), fn func(events.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &Error{Command: "events", StatusCode: resp.StatusCode, Message: decodeMessage(raw, resp.Status)}
	}
	if ready != nil {
		ready()
	}

	err = readEvents(resp.Body, fn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Subscribe 持续订阅事件流，断线后按指数退避重连，直到 ctx 取消。
// onConnect 在每次（重新）连接成功后调用，可用来重新拉取全量数据。
func (c *Client) Subscribe(ctx context.Context, onConnect func(), fn func(events.Event)) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0

	for {
		connected := false
		err := c.Stream(ctx, func() {
			connected = true
			policy.Reset()
			if onConnect != nil {
				onConnect()
			}
		}, fn)
		if ctx.Err() != nil {
			return nil
		}
		wait := policy.NextBackOff()
		c.logger.Warn("event stream disconnected", "error", err, "connected", connected, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// readEvents 解析 text/event-stream：data 行累积，空行分发，注释行忽略。
func readEvents(r io.Reader, fn func(events.Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var evt events.Event
			if err := json.Unmarshal([]byte(data.String()), &evt); err == nil {
				fn(evt)
			}
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return ErrStreamClosed
}
