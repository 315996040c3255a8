package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/roach88/capnego/internal/caps"
	"github.com/roach88/capnego/internal/negotiate"
	"github.com/roach88/capnego/internal/registry"
)

// NegotiateOptions holds flags for the negotiate command.
type NegotiateOptions struct {
	*RootOptions
	Database string
	Filter   string
	Mode     string
	Caps     bool // arguments are caps text, not element names
	RedisURL string
	CacheTTL time.Duration
}

// NegotiationOutput is the result of a successful negotiation.
type NegotiationOutput struct {
	Session string `json:"session_id"`
	Key     string `json:"key"`
	Common  string `json:"common"`
	Fixed   string `json:"fixed"`
	Cached  bool   `json:"cached"`
}

// NewNegotiateCommand creates the negotiate command.
func NewNegotiateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NegotiateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "negotiate <src> <sink>",
		Short: "Negotiate the format of a link",
		Long: `Negotiate a single format between the src pads of one element and the
sink pads of another, as stored in the registry. With --caps the two
arguments are caps text instead of element names.

Negotiations are recorded in the registry history when --db is given.
With --redis, results are shared between runs through Redis.

Exits 1 if the two sides have no common format or the result cannot be
fixated.

Examples:
  capnego negotiate --db registry.db audiotestsrc alsasink
  capnego negotiate --db registry.db audiotestsrc alsasink --filter "audio/x-raw, channels=(int)1"
  capnego negotiate --caps "audio/x-raw, rate=(int)[ 1, 96000 ]" "audio/x-raw, rate=(int){ 44100, 48000 }"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNegotiate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to registry database")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "restrict the result to these caps")
	cmd.Flags().StringVar(&opts.Mode, "mode", "zigzag", "intersection order (zigzag|first)")
	cmd.Flags().BoolVar(&opts.Caps, "caps", false, "arguments are caps instead of element names")
	cmd.Flags().StringVar(&opts.RedisURL, "redis", "", "Redis URL for the shared result cache (redis://host:port/db)")
	cmd.Flags().DurationVar(&opts.CacheTTL, "cache-ttl", negotiate.DefaultCacheTTL, "lifetime of cached results")

	return cmd
}

func runNegotiate(opts *NegotiateOptions, src, sink string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	mode, ok := caps.ParseIntersectMode(opts.Mode)
	if !ok {
		return f.fail(ExitCommandError, ErrCodeBadFlag, fmt.Sprintf("invalid mode %q: must be zigzag or first", opts.Mode))
	}
	if !opts.Caps && opts.Database == "" {
		return f.fail(ExitCommandError, ErrCodeBadFlag, "--db is required to negotiate between elements")
	}

	var filter *caps.Caps
	if opts.Filter != "" {
		parsed, err := parseArgs(f, []string{opts.Filter})
		if err != nil {
			return err
		}
		filter = parsed[0]
	}

	logger := f.Logger()
	negOpts := []negotiate.Option{negotiate.WithMode(mode), negotiate.WithLogger(logger)}

	var reg *registry.Registry
	if opts.Database != "" {
		var err error
		if reg, err = openRegistry(f, opts.Database); err != nil {
			return err
		}
		defer reg.Close()
		negOpts = append(negOpts, negotiate.WithHistory(reg))
	}

	if opts.RedisURL != "" {
		client, err := redisClient(opts.RedisURL)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeCache, err.Error())
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			// Negotiation does not need the cache.
			logger.Warn("redis unavailable, negotiating without cache", "url", opts.RedisURL, "error", err)
		}
		negOpts = append(negOpts, negotiate.WithCache(negotiate.NewRedisCache(client, negotiate.WithTTL(opts.CacheTTL))))
	}

	n := negotiate.New(negOpts...)

	var res *negotiate.Result
	var err error
	if opts.Caps {
		in, perr := parseArgs(f, []string{src, sink})
		if perr != nil {
			return perr
		}
		res, err = n.Negotiate(ctx, in[0], in[1], filter)
	} else {
		res, err = n.Link(ctx, reg, src, sink, filter)
	}
	if err != nil {
		return negotiationFailure(f, err)
	}

	out := NegotiationOutput{
		Session: res.SessionID,
		Key:     res.Key,
		Common:  res.Common.String(),
		Fixed:   res.Fixed.String(),
		Cached:  res.Cached,
	}
	return f.Success(out, func(w io.Writer) {
		fmt.Fprintln(w, out.Fixed)
		if f.Verbose {
			fmt.Fprintf(w, "\nSession: %s\nCommon:  %s\nCached:  %t\n", out.Session, out.Common, out.Cached)
		}
	})
}

// negotiationFailure maps a negotiation error to its error code and exit
// code. Missing elements are command errors; incompatible caps are
// failures.
func negotiationFailure(f *OutputFormatter, err error) error {
	var details map[string]any
	var nerr *negotiate.NegotiationError
	if errors.As(err, &nerr) {
		details = map[string]any{"session_id": nerr.SessionID}
	}

	var code string
	exit := ExitFailure
	switch {
	case errors.Is(err, negotiate.ErrNoCommonFormat):
		code = ErrCodeNoCommon
	case errors.Is(err, negotiate.ErrNotFixable):
		code = ErrCodeNotFixable
	case errors.Is(err, registry.ErrNotFound):
		code, exit = ErrCodeNotFound, ExitCommandError
	default:
		code, exit = ErrCodeGeneric, ExitCommandError
	}

	_ = f.Error(code, err.Error(), details)
	return WrapExitError(exit, code, err)
}

// redisClient builds a client from a redis:// URL.
func redisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return redis.NewClient(opt), nil
}
