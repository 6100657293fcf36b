package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Tier is the trust level a procedure requires.
type Tier string

const (
	TierPublic    Tier = "public"
	TierProtected Tier = "protected"
)

// Kind selects the HTTP method a procedure is invoked with.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

func (k Kind) method() string {
	if k == KindMutation {
		return fiber.MethodPost
	}
	return fiber.MethodGet
}

// PublicRequest is the context handed to public procedures. User is nil for
// anonymous callers.
type PublicRequest struct {
	Ctx          context.Context
	User         *models.User
	ClearSession func()
}

// ProtectedRequest is the context handed to protected procedures. The
// registry only builds one once the caller's identity is resolved.
type ProtectedRequest struct {
	Ctx  context.Context
	User models.User
}

// RateLimitRule limits calls per user within a fixed window.
type RateLimitRule struct {
	Resource string        `json:"resource" yaml:"resource"`
	Limit    int           `json:"limit" yaml:"limit"`
	Window   time.Duration `json:"window" yaml:"window"`
}

// ProcedureInfo is the catalog entry of a registered procedure.
type ProcedureInfo struct {
	Name      string         `json:"name" yaml:"name"`
	Tier      Tier           `json:"tier" yaml:"tier"`
	Kind      Kind           `json:"kind" yaml:"kind"`
	Input     []Field        `json:"input" yaml:"input"`
	RateLimit *RateLimitRule `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
}

type invocation struct {
	c     *fiber.Ctx
	ctx   context.Context
	user  *models.User
	input []byte
}

type procedure struct {
	info   ProcedureInfo
	schema Schema
	call   func(inv invocation) (any, error)
}

// Registry maps procedure names to typed handlers and dispatches calls.
type Registry struct {
	procs        map[string]*procedure
	redis        *redis.Client
	clearSession func(c *fiber.Ctx)
}

// NewRegistry creates an empty registry. rdb backs per-procedure rate
// limits and may be nil.
func NewRegistry(rdb *redis.Client, clearSession func(c *fiber.Ctx)) *Registry {
	return &Registry{
		procs:        make(map[string]*procedure),
		redis:        rdb,
		clearSession: clearSession,
	}
}

// ProcedureOption customizes a registration.
type ProcedureOption func(*procedure)

// WithRateLimit limits successful calls per user. Only meaningful for
// protected procedures.
func WithRateLimit(resource string, limit int, window time.Duration) ProcedureOption {
	return func(p *procedure) {
		p.info.RateLimit = &RateLimitRule{Resource: resource, Limit: limit, Window: window}
	}
}

func (r *Registry) add(p *procedure, opts []ProcedureOption) {
	if _, dup := r.procs[p.info.Name]; dup {
		panic(fmt.Sprintf("procedure %q registered twice", p.info.Name))
	}
	for _, opt := range opts {
		opt(p)
	}
	p.info.Input = p.schema.Fields
	if p.info.Input == nil {
		p.info.Input = []Field{}
	}
	r.procs[p.info.Name] = p
}

// Public registers a procedure callable without a session.
func Public[In, Out any](r *Registry, name string, kind Kind, schema Schema, fn func(PublicRequest, In) (Out, error), opts ...ProcedureOption) {
	r.add(&procedure{
		info:   ProcedureInfo{Name: name, Tier: TierPublic, Kind: kind},
		schema: schema,
		call: func(inv invocation) (any, error) {
			var in In
			if err := decodeInput(inv.input, &in); err != nil {
				return nil, err
			}
			req := PublicRequest{
				Ctx:          inv.ctx,
				User:         inv.user,
				ClearSession: func() { r.clearSession(inv.c) },
			}
			return fn(req, in)
		},
	}, opts)
}

// Protected registers a procedure that requires a resolved identity.
func Protected[In, Out any](r *Registry, name string, kind Kind, schema Schema, fn func(ProtectedRequest, In) (Out, error), opts ...ProcedureOption) {
	r.add(&procedure{
		info:   ProcedureInfo{Name: name, Tier: TierProtected, Kind: kind},
		schema: schema,
		call: func(inv invocation) (any, error) {
			var in In
			if err := decodeInput(inv.input, &in); err != nil {
				return nil, err
			}
			return fn(ProtectedRequest{Ctx: inv.ctx, User: *inv.user}, in)
		},
	}, opts)
}

func decodeInput(raw []byte, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return models.NewValidationError("invalid input: " + err.Error())
	}
	return nil
}

// Describe lists the registered procedures ordered by name.
func (r *Registry) Describe() []ProcedureInfo {
	out := make([]ProcedureInfo, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, p.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Catalog handles GET /api/rpc.
func (r *Registry) Catalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": r.Describe()})
}

// Handle dispatches /api/rpc/:procedure. Queries take their input from the
// "input" query parameter and mutations from the request body.
func (r *Registry) Handle(c *fiber.Ctx) error {
	name := c.Params("procedure")
	p, ok := r.procs[name]
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: fmt.Sprintf("No procedure found on path %q", name)})
	}

	if c.Method() != p.info.Kind.method() {
		return models.RespondWithError(c, fiber.StatusMethodNotAllowed,
			&models.AppError{Code: models.CodeMethod, Message: fmt.Sprintf("%s %s must be called with %s", p.info.Kind, name, p.info.Kind.method())})
	}

	start := time.Now()
	span, ctx := observability.StartSpan(c.UserContext(), "rpc "+name,
		attribute.String("rpc.procedure", name),
		attribute.String("rpc.tier", string(p.info.Tier)),
		attribute.String("rpc.kind", string(p.info.Kind)),
	)
	defer span.End()

	out, err := r.invoke(ctx, c, p)
	observability.ProcedureLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
			errors.As(err, &appErr)
		}
		span.SetError(err)
		observability.ProcedureCalls.WithLabelValues(name, string(p.info.Tier), strings.ToLower(appErr.Code)).Inc()
		if appErr.Code == models.CodeInternal {
			middleware.Logger.ErrorContext(ctx, "procedure failed",
				slog.String("procedure", name),
				slog.String("error", err.Error()))
		}
		return models.RespondWithError(c, models.HTTPStatus(err), err)
	}

	observability.ProcedureCalls.WithLabelValues(name, string(p.info.Tier), "ok").Inc()
	return c.JSON(fiber.Map{"result": out})
}

func (r *Registry) invoke(ctx context.Context, c *fiber.Ctx, p *procedure) (any, error) {
	user, _ := c.Locals("user").(*models.User)

	if p.info.Tier == TierProtected && user == nil {
		return nil, models.NewUnauthorizedError("Please login")
	}

	raw := c.Body()
	if p.info.Kind == KindQuery {
		raw = []byte(c.Query("input"))
	}
	input, err := p.schema.Parse(raw)
	if err != nil {
		return nil, err
	}

	rule := p.info.RateLimit
	if rule == nil || user == nil {
		return p.call(invocation{c: c, ctx: ctx, user: user, input: input})
	}

	id := fmt.Sprintf("user:%d", user.ID)
	counted, err := r.checkRateLimit(ctx, rule, id)
	if err != nil {
		return nil, err
	}
	out, err := p.call(invocation{c: c, ctx: ctx, user: user, input: input})
	if err != nil && counted {
		r.releaseRateLimit(ctx, rule, id)
	}
	return out, err
}

// checkRateLimit takes a slot for id and reports whether one was counted.
// It fails open when Redis is unavailable.
func (r *Registry) checkRateLimit(ctx context.Context, rule *RateLimitRule, id string) (bool, error) {
	allowed, err := middleware.CheckRateLimit(ctx, r.redis, rule.Resource, id, rule.Limit, rule.Window)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "rate limit store unavailable, allowing request",
			slog.String("resource", rule.Resource),
			slog.String("error", err.Error()))
		return false, nil
	}
	if !allowed {
		return false, models.NewRateLimitedError("Too many requests, please try again later.")
	}
	return true, nil
}

// releaseRateLimit hands back the slot taken for a failed call.
func (r *Registry) releaseRateLimit(ctx context.Context, rule *RateLimitRule, id string) {
	if err := middleware.ReleaseRateLimit(ctx, r.redis, rule.Resource, id); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to release rate limit slot",
			slog.String("resource", rule.Resource),
			slog.String("error", err.Error()))
	}
}
