package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tidalcode/xmlbind"
)

// treeNode is the YAML-friendly shape dumped by `xmlbind tree`: every
// element annotated with its resolved namespace URI, so a human can see
// the scope stack's resolution decisions without reading the raw markup.
type treeNode struct {
	Element    string            `yaml:"element"`
	Namespace  string            `yaml:"namespace,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Text       string            `yaml:"text,omitempty"`
	Children   []*treeNode       `yaml:"children,omitempty"`
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Dump the parsed element tree as YAML, with resolved namespace URIs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			root, err := buildTree(string(data))
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(root)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// buildTree walks the raw document with the library's own Deserializer
// primitives, independent of any registered type, the same way
// `xmlbind inspect` does — it has no typed schema to dispatch against,
// so it drives EnterElement/NextAttribute/NextChild/ExitElement directly
// rather than going through the registry.
func buildTree(doc string) (*treeNode, error) {
	d := xmlbind.NewDeserializer(xmlbind.NewDefaultTokenSource(strings.NewReader(doc)))
	ctx, err := d.EnterElement(nil)
	if err != nil {
		return nil, err
	}
	return walkElement(d, ctx)
}

func walkElement(d *xmlbind.Deserializer, ctx *xmlbind.Context) (*treeNode, error) {
	n := &treeNode{Element: ctx.Id.Local, Namespace: ctx.Id.URI}

	for {
		id, value, ok, err := d.NextAttribute(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if n.Attributes == nil {
			n.Attributes = map[string]string{}
		}
		n.Attributes[id.Local] = value
	}

	if text, ok, err := d.TakeStr(); err != nil {
		return nil, err
	} else if ok {
		n.Text = text
	}

	for {
		_, childCtx, ok, err := d.NextChild()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		child, err := walkElement(d, childCtx)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}

	if err := d.ExitElement(ctx); err != nil {
		return nil, err
	}
	return n, nil
}
