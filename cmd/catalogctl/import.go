package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Upsert products from a JSON array or newline-delimited JSON",
		Long: `import reads scraped products and upserts them into the catalog the same
way catalog sync events do: enrichment fields are kept when a record omits
them and the embedding is cleared only when the searchable text changed.
Records that fail validation are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open products file: %w", err)
				}
				defer f.Close()
				in = f
			}

			ctx := cmd.Context()
			comps, err := c.components(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			var stored, skipped int
			err = decodeProducts(in, func(p service.UpsertInput) error {
				if _, err := comps.Products.Upsert(ctx, p); err != nil {
					if errors.Is(err, apperrors.ErrInvalidInput) {
						skipped++
						c.logger.WarnContext(ctx, "product skipped",
							slog.String("product_id", p.ID),
							slog.String("error", err.Error()),
						)
						return nil
					}
					return err
				}
				stored++
				return nil
			})
			if err != nil {
				return fmt.Errorf("import after %d products: %w", stored, err)
			}

			if c.asJSON {
				return c.printJSON(map[string]int{"stored": stored, "skipped": skipped})
			}
			fmt.Fprintf(c.out, "stored:  %d\n", stored)
			fmt.Fprintf(c.out, "skipped: %d\n", skipped)
			return nil
		},
	}
}

// decodeProducts calls fn for each product of r, which holds either one JSON
// array or a stream of JSON objects.
func decodeProducts(r io.Reader, fn func(service.UpsertInput) error) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("decode products: %w", err)
		}
		for dec.More() {
			var p service.UpsertInput
			if err := dec.Decode(&p); err != nil {
				return fmt.Errorf("decode product: %w", err)
			}
			if err := fn(p); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		var p service.UpsertInput
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode product: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
