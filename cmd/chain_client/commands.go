package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chain-calculator/internal/client"
	"chain-calculator/internal/config"
	"chain-calculator/internal/logger"
)

var (
	envFile   string
	transport string
	password  string

	rootCmd = &cobra.Command{
		Use:   "chain_client",
		Short: "Post numbers and reply to them with arithmetic",
		Long: `chain_client talks to a chain server. Every calculation starts with a
number and grows by replies that apply +, -, * or / to their parent's result.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitConfig(envFile)
			logger.InitClientLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.CloseLogger()
		},
	}

	signupCmd = &cobra.Command{
		Use:   "signup <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE:  runSignup,
	}

	loginCmd = &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}

	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show every calculation as a tree",
		Args:    cobra.NoArgs,
		RunE:    runList,
	}

	postCmd = &cobra.Command{
		Use:   "post <number>",
		Short: "Start a new calculation",
		Args:  cobra.ExactArgs(1),
		RunE:  runPost,
	}

	replyCmd = &cobra.Command{
		Use:   "reply <parent-id> <operation> <number>",
		Short: "Apply an operation to a node's result",
		Example: `  chain_client reply 12 / 4
  chain_client reply 12 multiply 3`,
		Args: cobra.ExactArgs(3),
		RunE: runReply,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to the .env file")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "server transport: http or grpc")

	for _, cmd := range []*cobra.Command{signupCmd, loginCmd} {
		cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted for when omitted)")
	}

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, listCmd, postCmd, replyCmd)
}

func newClient() (client.ChainClient, error) {
	switch transport {
	case "http":
		return client.NewHTTPClient(config.AppConfig.ServerURL), nil
	case "grpc":
		return client.NewGRPCClient(config.AppConfig.GRPCAddress), nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want http or grpc)", transport)
	}
}

func sessions() *client.SessionStore {
	return client.NewSessionStore(config.AppConfig.SessionFilePath)
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, c client.ChainClient) error) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	return fn(ctx, c)
}

func requireSession() (*client.Session, error) {
	session, err := sessions().Load()
	if errors.Is(err, client.ErrNoSession) {
		return nil, errors.New("not logged in, run `chain_client login <username>` first")
	}
	return session, err
}

// readPassword returns the -p flag if set. Otherwise it prompts without echo
// on a terminal, or reads one line from the command's input.
func readPassword(cmd *cobra.Command) (string, error) {
	if password != "" {
		return password, nil
	}

	var pw string
	if in, ok := cmd.InOrStdin().(*os.File); ok && in == os.Stdin && term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw = string(raw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.New("password required: pass -p or type it on stdin")
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	pw, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c client.ChainClient) error {
		userID, err := c.Signup(ctx, args[0], pw)
		if err != nil {
			return err
		}
		cmd.Printf("Account %q created (id %d). Log in with `chain_client login %s`\n", args[0], userID, args[0])
		return nil
	})
}

func runLogin(cmd *cobra.Command, args []string) error {
	pw, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c client.ChainClient) error {
		session, err := c.Login(ctx, args[0], pw)
		if err != nil {
			return err
		}
		if err := sessions().Save(session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		cmd.Printf("Logged in as %s\n", session.Username)
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := sessions().Clear(); err != nil {
		return err
	}
	cmd.Println("Logged out")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c client.ChainClient) error {
		return renderAll(ctx, cmd, c)
	})
}

func runPost(cmd *cobra.Command, args []string) error {
	session, err := requireSession()
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c client.ChainClient) error {
		if _, err := c.CreateRoot(ctx, session.Token, args[0]); err != nil {
			return explain(err)
		}
		return renderAll(ctx, cmd, c)
	})
}

func runReply(cmd *cobra.Command, args []string) error {
	parentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || parentID <= 0 {
		return fmt.Errorf("parent id must be a positive integer, got %q", args[0])
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c client.ChainClient) error {
		if _, err := c.Reply(ctx, session.Token, parentID, args[1], args[2]); err != nil {
			return explain(err)
		}
		return renderAll(ctx, cmd, c)
	})
}

// renderAll refetches the full list and prints it as a tree.
func renderAll(ctx context.Context, cmd *cobra.Command, c client.ChainClient) error {
	nodes, err := c.ListNodes(ctx)
	if err != nil {
		return err
	}

	forest := client.BuildTree(nodes)
	if len(forest.Orphans) > 0 {
		logger.Log.Warn().Int("orphans", len(forest.Orphans)).Msg("nodes reference parents missing from the listing")
	}
	return client.Render(cmd.OutOrStdout(), forest)
}

func explain(err error) error {
	if errors.Is(err, client.ErrUnauthenticated) {
		return fmt.Errorf("%w; your session may have expired, log in again", err)
	}
	return err
}
