package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/credcore"
)

const envPrefix = "CREDCORE"

const usage = `usage: credcore <command> [flags]

commands:
  hash      hash a password read from -password or stdin
  verify    check a password against a stored hash
  issue     sign an access token
  inspect   validate an access token and print its claims
  serve     serve /metrics and a bearer-protected /whoami
  loadtest  measure issue and fetch throughput

configuration is read from CREDCORE_* environment variables,
e.g. CREDCORE_AUTH_SECRET_KEY, CREDCORE_AUTH_ACCESS_TTL=15m.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	os.Exit(run(os.Args[1], os.Args[2:], os.Stdin, os.Stdout, os.Stderr))
}

func run(cmd string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	switch cmd {
	case "hash":
		err = runHash(args, stdin, stdout)
	case "verify":
		err = runVerify(args, stdin, stdout)
	case "issue":
		err = runIssue(args, stdout)
	case "inspect":
		err = runInspect(args, stdout)
	case "serve":
		err = runServe(args)
	case "loadtest":
		err = runLoadtest(args, stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errMismatch):
		fmt.Fprintln(stderr, err)
		return 1
	case credcore.IsCredentialError(err):
		fmt.Fprintln(stderr, err)
		return 1
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
}

var errMismatch = errors.New("password does not match")

type commonFlags struct {
	verbose bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "log debug output to stderr")
}

func (c *commonFlags) logger() *zap.Logger {
	if !c.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func loadConfig() (credcore.Config, error) {
	return credcore.ConfigFromEnv(envPrefix, nil)
}

func buildBackend(c commonFlags) (*credcore.TokenBackend, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := c.logger()
	backend, err := credcore.New().WithConfig(cfg).WithLogger(logger).Build()
	if err != nil {
		return nil, nil, err
	}
	return backend, logger, nil
}

func buildPasswordBackend() (*credcore.PasswordBackend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return credcore.NewPasswordBackend(cfg.Password)
}

func readPassword(flagValue string, stdin io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given")
	}
	return line, nil
}

func runHash(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	pw := fs.String("password", "", "password to hash; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, err := buildPasswordBackend()
	if err != nil {
		return err
	}
	password, err := readPassword(*pw, stdin)
	if err != nil {
		return err
	}
	hashed, err := backend.CreatePasswordHash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hashed)
	return nil
}

func runVerify(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	hashed := fs.String("hash", "", "stored hash")
	pw := fs.String("password", "", "candidate password; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *hashed == "" {
		return errors.New("-hash is required")
	}

	backend, err := buildPasswordBackend()
	if err != nil {
		return err
	}
	password, err := readPassword(*pw, stdin)
	if err != nil {
		return err
	}

	ok, newHash, err := backend.VerifyAndUpdate(password, *hashed)
	if err != nil {
		return err
	}
	if !ok {
		return errMismatch
	}
	fmt.Fprintln(stdout, "ok")
	if newHash != "" {
		fmt.Fprintln(stdout, "rehash:", newHash)
	}
	return nil
}

func runIssue(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	sub := fs.String("sub", "", "subject")
	aud := fs.String("aud", "", "comma-separated audience")
	scope := fs.String("scope", "", "space-delimited scopes")
	ttl := fs.Duration("ttl", 0, "lifetime; zero uses CREDCORE_AUTH_ACCESS_TTL")
	jti := fs.String("jti", "", "token id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, logger, err := buildBackend(common)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	data := credcore.TokenData{
		Subject: *sub,
		ID:      *jti,
		Scopes:  credcore.Scopes(strings.Fields(*scope)),
	}
	if *aud != "" {
		data.Audience = strings.Split(*aud, ",")
	}
	if *ttl > 0 {
		data.ExpiresAt = time.Now().Add(*ttl)
	}

	tok, err := backend.CreateAccessToken(data)
	if err != nil {
		return err
	}
	return writeJSON(stdout, tok)
}

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect takes exactly one token")
	}

	backend, logger, err := buildBackend(common)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	data, err := backend.FetchData(fs.Arg(0))
	if err != nil {
		return err
	}
	return writeJSON(stdout, data.Claims())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
