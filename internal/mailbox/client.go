package mailbox

import (
	"context"
	"errors"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog/log"
)

// RawMessage is the transient handle for a fetched message: the
// server-decoded envelope fields plus the raw RFC 822 bytes. It is
// produced by the connector and consumed once by the normalizer.
type RawMessage struct {
	UID     uint32
	Sender  string
	Subject string
	Date    time.Time
	Raw     []byte
}

// mailSession is one authenticated connection. The IMAP client
// implements it; tests inject fakes to exercise the reconnect path.
type mailSession interface {
	FetchWindow(windowDays, maxCount int) ([]RawMessage, error)
	Logout()
}

// Client wraps go-imap v2 for connecting to and querying a single
// IMAP account. Each fetch owns its connection exclusively; the
// session is released on every exit path.
type Client struct {
	host     string
	port     string
	folder   string
	username string
	password string

	dial func(ctx context.Context) (mailSession, error)
}

// NewClient creates a new IMAP client configuration.
func NewClient(host, port, folder, username, password string) *Client {
	if folder == "" {
		folder = "INBOX"
	}
	c := &Client{
		host:     host,
		port:     port,
		folder:   folder,
		username: username,
		password: password,
	}
	c.dial = c.dialIMAP
	return c
}

// addr returns the dial address for the configured server.
func (c *Client) addr() string {
	return c.host + ":" + c.port
}

// dialIMAP establishes a TLS connection to the IMAP server and
// authenticates. Dial failures are ConnectivityError. A login failure
// is an AuthError only when the server itself rejected the command; a
// transport drop mid-LOGIN is a ConnectivityError, since it says
// nothing about the credentials.
func (c *Client) dialIMAP(_ context.Context) (mailSession, error) {
	client, err := imapclient.DialTLS(c.addr(), nil)
	if err != nil {
		return nil, &ConnectivityError{Addr: c.addr(), Err: err}
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, c.classifyLoginError(err)
	}

	return &imapSession{client: client, folder: c.folder}, nil
}

// classifyLoginError maps a LOGIN failure to the error taxonomy: an
// IMAP status response (NO/BAD) means the server rejected the
// credentials, anything else is a connectivity problem.
func (c *Client) classifyLoginError(err error) error {
	var imapErr *imap.Error
	if errors.As(err, &imapErr) {
		return &AuthError{
			Username: c.username,
			Message:  err.Error(),
		}
	}
	return &ConnectivityError{Addr: c.addr(), Err: err}
}

// FetchRecent connects, selects the configured folder, searches for
// messages received within the last windowDays days, and fetches the
// newest maxCount of them, most recent first.
//
// If a command fails after a successful login (a silently expired
// session), the connection is re-established once and the whole
// select/search/fetch is retried; a second consecutive failure
// surfaces as a ConnectivityError.
func (c *Client) FetchRecent(
	ctx context.Context, windowDays, maxCount int,
) ([]RawMessage, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	if windowDays <= 0 {
		windowDays = 7
	}

	sess, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	msgs, err := sess.FetchWindow(windowDays, maxCount)
	sess.Logout()
	if err == nil {
		return msgs, nil
	}

	log.Warn().
		Err(err).
		Str("addr", c.addr()).
		Msg("fetch failed, reconnecting once")

	sess, cerr := c.dial(ctx)
	if cerr != nil {
		return nil, cerr
	}
	defer sess.Logout()

	msgs, err = sess.FetchWindow(windowDays, maxCount)
	if err != nil {
		return nil, &ConnectivityError{Addr: c.addr(), Err: err}
	}

	return msgs, nil
}

// imapSession adapts an authenticated go-imap client to mailSession.
type imapSession struct {
	client *imapclient.Client
	folder string
}

func (s *imapSession) Logout() {
	_ = s.client.Logout().Wait()
}

// FetchWindow runs one select/search/fetch pass and returns the
// newest messages first.
func (s *imapSession) FetchWindow(windowDays, maxCount int) ([]RawMessage, error) {
	if _, err := s.client.Select(s.folder, nil).Wait(); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	criteria := &imap.SearchCriteria{
		Since: since,
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}

	uids := selectRecent(searchData.AllUIDs(), maxCount)
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	// The server returns messages in mailbox order, not request order.
	byUID := make(map[imap.UID]RawMessage, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		raw := rawMessageFromBuffer(buf)
		raw.Raw = buf.FindBodySection(bodySection)
		byUID[buf.UID] = raw
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, err
	}

	msgs := make([]RawMessage, 0, len(uids))
	for _, uid := range uids {
		if raw, ok := byUID[uid]; ok {
			msgs = append(msgs, raw)
		}
	}

	return msgs, nil
}

// selectRecent takes the newest max UIDs from an ascending search
// result and returns them newest first.
func selectRecent(uids []imap.UID, max int) []imap.UID {
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}

	out := make([]imap.UID, len(uids))
	for i, uid := range uids {
		out[len(uids)-1-i] = uid
	}
	return out
}

// rawMessageFromBuffer extracts envelope fields from a fetch buffer.
func rawMessageFromBuffer(buf *imapclient.FetchMessageBuffer) RawMessage {
	raw := RawMessage{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		raw.Subject = buf.Envelope.Subject
		raw.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				raw.Sender = from.Name
			} else {
				raw.Sender = from.Addr()
			}
		}
	}

	return raw
}
