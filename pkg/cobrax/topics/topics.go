// Package topics adds file-backed help topics to a cobra command tree:
// `<app> help <topic>` prints a topic, `<app> help topics` lists them, and
// anything else falls through to cobra's own help.
package topics

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Manager holds the topics loaded from one filesystem.
type Manager struct {
	fsys       fs.FS
	topics     map[string]*Topic
	extensions []string
	renderer   Renderer
}

// Topic is one help document.
type Topic struct {
	Name    string
	Path    string
	Content string
}

// Options configures a Manager.
type Options struct {
	// Extensions considered topics. Defaults to .txt and .md.
	Extensions []string

	// Renderer defaults to PlainRenderer.
	Renderer Renderer
}

// New scans fsys for topic files. Subdirectories are flattened: a topic is
// named after its file name without extension. A nil fsys yields no topics.
func New(fsys fs.FS, opts Options) (*Manager, error) {
	m := &Manager{
		fsys:       fsys,
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}
	if len(m.extensions) == 0 {
		m.extensions = []string{".txt", ".md"}
	}
	if m.renderer == nil {
		m.renderer = &PlainRenderer{}
	}
	if fsys == nil {
		return m, nil
	}
	if err := m.scan(); err != nil {
		return nil, fmt.Errorf("failed to scan topics: %w", err)
	}
	return m, nil
}

func (m *Manager) scan() error {
	return fs.WalkDir(m.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !m.supported(path.Ext(p)) {
			return nil
		}
		content, err := fs.ReadFile(m.fsys, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		m.topics[name] = &Topic{Name: name, Path: p, Content: string(content)}
		return nil
	})
}

func (m *Manager) supported(ext string) bool {
	for _, e := range m.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Get returns a topic by name. Flag spellings such as --dry-run also find
// the topic stored as option-dry-run.
func (m *Manager) Get(name string) (*Topic, bool) {
	name = strings.TrimPrefix(name, "--")
	name = strings.TrimPrefix(name, "-")

	if topic, ok := m.topics[name]; ok {
		return topic, true
	}
	topic, ok := m.topics["option-"+name]
	return topic, ok
}

// List returns the topic names, sorted.
func (m *Manager) List() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render returns the rendered content of a topic.
func (m *Manager) Render(t *Topic) string {
	return m.renderer.Render(t.Content, path.Ext(t.Path))
}

// WriteList prints the topic index for app.
func (m *Manager) WriteList(w io.Writer, app string) {
	names := m.List()
	if len(names) == 0 {
		fmt.Fprintln(w, "No help topics available.")
		return
	}

	var general, options []string
	for _, name := range names {
		if opt, ok := strings.CutPrefix(name, "option-"); ok {
			options = append(options, opt)
		} else {
			general = append(general, name)
		}
	}

	fmt.Fprintln(w, "Available help topics:")
	if len(general) > 0 {
		fmt.Fprintln(w, "\nGeneral topics:")
		for _, name := range general {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	if len(options) > 0 {
		fmt.Fprintln(w, "\nOption topics:")
		for _, name := range options {
			fmt.Fprintf(w, "  --%s\n", name)
		}
	}
	fmt.Fprintf(w, "\nUse '%s help <topic>' to read about a specific topic.\n", app)
}

// Install replaces root's help command with one that also knows topics.
func Install(root *cobra.Command, m *Manager) {
	originalHelp := root.HelpFunc()

	helpCmd := &cobra.Command{
		Use:   "help [command or topic]",
		Short: "Help about any command or topic",
		Long: `Help provides help for any command or topic in the application.
Simply type ` + root.Name() + ` help [path to command or topic] for full details.

To see all available help topics:
  ` + root.Name() + ` help topics`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			completions := []string{"topics"}
			for _, c := range root.Commands() {
				if !c.Hidden {
					completions = append(completions, c.Name())
				}
			}
			completions = append(completions, m.List()...)
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			switch {
			case len(args) == 0:
				originalHelp(root, args)
			case args[0] == "topics":
				m.WriteList(out, root.Name())
			default:
				if topic, ok := m.Get(args[0]); ok {
					fmt.Fprint(out, m.Render(topic))
					return
				}
				target, _, err := root.Find(args)
				if err != nil || target == nil {
					target = root
				}
				originalHelp(target, args)
			}
		},
	}

	for _, c := range root.Commands() {
		if c.Name() == "help" {
			root.RemoveCommand(c)
			break
		}
	}
	root.SetHelpCommand(helpCmd)
}
