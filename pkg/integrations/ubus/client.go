package ubus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/meshtower/pkg/buildinfo"
	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/integrations"
	"github.com/matzehuels/meshtower/pkg/session"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// Topology source on the router.
const (
	TopologyObject = "umap"
	TopologyMethod = "get_topology"
)

// Config configures a [Client].
type Config struct {
	URL      string
	Username string
	Password string
	HTTP     integrations.HTTPOptions
}

// Client calls ubus methods through rpcd. It is safe for concurrent use as
// long as the session store is.
type Client struct {
	*integrations.Client
	url      string
	username string
	password string
	store    session.Store
	logger   *log.Logger
}

// NewClient creates a client for cfg.URL. A nil store keeps sessions in
// memory; a nil logger uses the default charm logger.
func NewClient(cfg Config, store session.Store, logger *log.Logger) (*Client, error) {
	if err := errs.ValidateEndpoint(cfg.URL); err != nil {
		return nil, err
	}
	if store == nil {
		store = session.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		Client:   integrations.NewClient(cfg.HTTP, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		url:      cfg.URL,
		username: cfg.Username,
		password: cfg.Password,
		store:    store,
		logger:   logger,
	}, nil
}

// URL returns the rpcd endpoint.
func (c *Client) URL() string { return c.url }

// Anonymous reports whether the client calls without logging in.
func (c *Client) Anonymous() bool { return c.username == "" }

// Login opens a new session and stores it, replacing any cached one.
func (c *Client) Login(ctx context.Context) (*session.Session, error) {
	if c.Anonymous() {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "no ubus username configured")
	}

	var reply loginReply
	args := map[string]any{"username": c.username, "password": c.password}
	if err := c.call(ctx, NullSession, "session", "login", args, &reply); err != nil {
		if errs.Is(err, errs.ErrCodeUnauthorized) {
			return nil, errs.Wrap(errs.ErrCodeUnauthorized, err, "login as %s rejected", c.username)
		}
		return nil, err
	}
	if reply.Session == "" {
		return nil, errs.New(errs.ErrCodeRPC, "login reply carried no session")
	}

	ttl := time.Duration(reply.Expires) * time.Second
	if ttl <= 0 {
		ttl = time.Duration(reply.Timeout) * time.Second
	}
	sess := session.New(c.url, c.username, reply.Session, ttl)
	if err := c.store.Set(ctx, sess); err != nil {
		c.logger.Warn("could not store ubus session", "error", err)
	}
	c.logger.Debug("ubus login", "user", c.username, "expires", sess.ExpiresAt.Format(time.TimeOnly))
	return sess, nil
}

// Logout destroys the stored session on the router and removes it locally.
// Logging out without a stored session is not an error.
func (c *Client) Logout(ctx context.Context) error {
	id := session.ID(c.url, c.username)
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess != nil {
		args := map[string]any{"ubus_rpc_session": sess.Token}
		if err := c.call(ctx, sess.Token, "session", "destroy", args, nil); err != nil {
			c.logger.Debug("session destroy failed", "error", err)
		}
	}
	return c.store.Delete(ctx, id)
}

// Call invokes object.method with args and decodes the reply into out
// (which may be nil). A rejected cached session triggers one fresh login.
func (c *Client) Call(ctx context.Context, object, method string, args, out any) error {
	if c.Anonymous() {
		return c.call(ctx, NullSession, object, method, args, out)
	}

	token, fresh, err := c.token(ctx)
	if err != nil {
		return err
	}
	err = c.call(ctx, token, object, method, args, out)
	if fresh || !errs.Is(err, errs.ErrCodeUnauthorized) {
		return err
	}

	c.logger.Debug("ubus session rejected, logging in again")
	if err := c.store.Delete(ctx, session.ID(c.url, c.username)); err != nil {
		return err
	}
	sess, err := c.Login(ctx)
	if err != nil {
		return err
	}
	return c.call(ctx, sess.Token, object, method, args, out)
}

// GetTopology calls umap get_topology and decodes the snapshot. A reply with
// no data yields an empty snapshot.
func (c *Client) GetTopology(ctx context.Context) (*topology.Snapshot, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, TopologyObject, TopologyMethod, map[string]any{}, &raw); err != nil {
		return nil, err
	}
	snap, err := topology.Decode(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode %s.%s reply", TopologyObject, TopologyMethod)
	}
	return snap, nil
}

// token returns a usable session token and whether it was just issued.
func (c *Client) token(ctx context.Context) (string, bool, error) {
	sess, err := c.store.Get(ctx, session.ID(c.url, c.username))
	if err != nil {
		c.logger.Warn("could not read ubus session", "error", err)
	}
	if sess != nil {
		return sess.Token, false, nil
	}
	sess, err = c.Login(ctx)
	if err != nil {
		return "", false, err
	}
	return sess.Token, true, nil
}

func (c *Client) call(ctx context.Context, token, object, method string, args, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	req := request{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "call",
		Params:  []any{token, object, method, args},
	}

	var resp response
	if err := c.PostJSON(ctx, c.url, req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return classifyRPCError(resp.Error, object, method)
	}
	if len(resp.Result) == 0 {
		return errs.New(errs.ErrCodeRPC, "ubus %s.%s: empty result", object, method)
	}

	var status int
	if err := json.Unmarshal(resp.Result[0], &status); err != nil {
		return errs.Wrap(errs.ErrCodeRPC, err, "ubus %s.%s: bad status", object, method)
	}
	if status != 0 {
		return &errs.RPCError{Object: object, Method: method, Status: status}
	}
	if out == nil || len(resp.Result) < 2 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], resp.Result[1]...)
		return nil
	}
	if err := json.Unmarshal(resp.Result[1], out); err != nil {
		return fmt.Errorf("ubus %s.%s: decode reply: %w", object, method, err)
	}
	return nil
}

func classifyRPCError(e *rpcError, object, method string) error {
	switch e.Code {
	case codeAccessDenied:
		return errs.Wrap(errs.ErrCodeUnauthorized, e, "ubus %s.%s", object, method)
	case codeMethodMissing:
		return errs.Wrap(errs.ErrCodeNotFound, e, "ubus %s.%s", object, method)
	}
	return errs.Wrap(errs.ErrCodeRPC, e, "ubus %s.%s", object, method)
}

// IsUnauthorized reports whether err means the router refused the
// credentials or the session.
func IsUnauthorized(err error) bool {
	var rpc *errs.RPCError
	if errors.As(err, &rpc) && rpc.Status == errs.UbusStatusPermissionDenied {
		return true
	}
	return errs.Is(err, errs.ErrCodeUnauthorized)
}
