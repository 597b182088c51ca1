package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/xwire/client"
	"github.com/luma/xwire/expr"
	"github.com/luma/xwire/protocol"
)

var probeAddr string

func init() {
	flags := ProbeCmd.PersistentFlags()

	flags.StringVar(&probeAddr, "addr", "127.0.0.1:7363", "The server address to connect to")
}

var ProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Interactive client for a running xwire server",
	Long: `Interactive client for a running xwire server

Commands
	exec <stmt> [-- <json array of args>]
	find <schema>.<collection>
	quit

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		log := zap.NewNop()

		conn := client.New(log)
		if err := conn.Connect(ctx, probeAddr); err != nil {
			return err
		}

		defer conn.Close()

		go func() {
			for notice := range conn.NoticeChan() {
				fmt.Printf("! notice %d (scope %d): %s\n",
					notice.Type, notice.Scope, string(notice.Payload))
			}
		}()

		rl, err := readline.New("xwire> ")
		if err != nil {
			return err
		}

		defer rl.Close()

		for {
			line, err := rl.Readline()
			if err != nil {
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return conn.Quit(ctx)
				}

				return err
			}

			if err := runProbeLine(ctx, conn, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errProbeQuit) {
					return nil
				}

				fmt.Println("error:", err)
			}
		}
	},
}

var errProbeQuit = errors.New("quit")

func runProbeLine(ctx context.Context, conn *client.Conn, line string) error {
	switch {
	case line == "":
		return nil

	case line == "quit" || line == "exit":
		if err := conn.Quit(ctx); err != nil {
			return err
		}

		return errProbeQuit

	case strings.HasPrefix(line, "exec "):
		stmt, args, err := parseExec(strings.TrimPrefix(line, "exec "))
		if err != nil {
			return err
		}

		return conn.Execute(ctx, stmt, args, &rowPrinter{})

	case strings.HasPrefix(line, "find "):
		collection, err := parseCollection(strings.TrimPrefix(line, "find "))
		if err != nil {
			return err
		}

		return conn.Find(ctx, collection, nil, &rowPrinter{})

	default:
		return fmt.Errorf("unknown command %q", strings.Fields(line)[0])
	}
}

// parseExec splits "stmt -- [json args]" and turns each element of the JSON
// array into a pushable argument value.
func parseExec(rest string) (string, []expr.Any, error) {
	stmt := rest

	var args []expr.Any

	if idx := strings.Index(rest, " -- "); idx >= 0 {
		stmt = strings.TrimSpace(rest[:idx])

		raw := strings.TrimSpace(rest[idx+4:])
		parsed := gjson.Parse(raw)
		if !parsed.IsArray() {
			return "", nil, fmt.Errorf("arguments must be a JSON array, got %q", raw)
		}

		for _, elem := range parsed.Array() {
			args = append(args, jsonArg(elem.Raw))
		}
	}

	if stmt == "" {
		return "", nil, errors.New("exec needs a statement")
	}

	return stmt, args, nil
}

func parseCollection(rest string) (expr.DBObj, error) {
	parts := strings.SplitN(strings.TrimSpace(rest), ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return expr.DBObj{}, errors.New("find needs <schema>.<collection>")
	}

	return expr.DBObj{Schema: parts[0], Name: parts[1]}, nil
}

// jsonArg is a statement argument backed by raw JSON; it describes itself
// to the processor by walking the JSON.
type jsonArg string

func (a jsonArg) ProcessAny(p expr.AnyProcessor) {
	// Validity was checked when the command line was parsed.
	_ = expr.ProcessJSON([]byte(a), p)
}

// rowPrinter prints a result set as it streams in.
type rowPrinter struct {
	columns []string
}

func (r *rowPrinter) Column(meta *protocol.ColumnMeta) {
	r.columns = append(r.columns, meta.Name)
}

func (r *rowPrinter) Row(row *protocol.Row) {
	parts := make([]string, 0, len(row.Fields))
	for i, f := range row.Fields {
		name := fmt.Sprintf("col%d", i)
		if i < len(r.columns) {
			name = r.columns[i]
		}

		parts = append(parts, fmt.Sprintf("%s=%s", name, string(f)))
	}

	fmt.Println(strings.Join(parts, "  "))
}

func (r *rowPrinter) Done() {
	fmt.Println("ok")
}
