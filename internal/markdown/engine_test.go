package markdown_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/markdown"
	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/rules"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

type fakeHighlighter struct{}

func (fakeHighlighter) CodeToHTML(code, lang, theme string) (string, error) {
	if lang == "unknown" {
		return "", highlight.ErrUnknownLanguage
	}
	if lang == "explode" {
		panic("highlighter exploded")
	}
	return fmt.Sprintf(`<pre class="fake %s"><code>%s|%s</code></pre>`, theme, lang, code), nil
}

type countingFactory struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *countingFactory) build(highlight.ThemeConfig) (highlight.Highlighter, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("grammar load failed")
	}
	return fakeHighlighter{}, nil
}

func plainEngine(t *testing.T, opts markdown.Options) *markdown.Engine {
	t.Helper()
	if opts.EnableHighlight == nil {
		opts.EnableHighlight = markdown.Bool(false)
	}
	return markdown.New(opts)
}

func mustRender(t *testing.T, e *markdown.Engine, input string) string {
	t.Helper()
	out, err := e.Render(context.Background(), input)
	if err != nil {
		t.Fatalf("render %q: %v", input, err)
	}
	return out
}

func TestEngineDefaultRuleOrder(t *testing.T) {
	e := plainEngine(t, markdown.Options{})
	if got := e.Rules(); !reflect.DeepEqual(got, markdown.DefaultRuleNames) {
		t.Fatalf("unexpected rule order: %v", got)
	}
}

func TestEngineBasicRendering(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text", input: "hello world", want: "<p>hello world</p>"},
		{name: "bold", input: "**bold**", want: "<strong>bold</strong>"},
		{name: "bold in prose", input: "a **bold** move", want: "<p>a <strong>bold</strong> move</p>"},
		{name: "italic", input: "an *emphasised* word", want: "<p>an <em>emphasised</em> word</p>"},
		{name: "inline code", input: "`code`", want: "<code>code</code>"},
		{name: "title", input: "# Title", want: "<h1>Title</h1>"},
		{name: "h3", input: "### Third", want: "<h3>Third</h3>"},
		{name: "h6", input: "###### Sixth", want: "<h6>Sixth</h6>"},
		{name: "heading with inline", input: "## A `cmd` and **b**", want: "<h2>A <code>cmd</code> and <strong>b</strong></h2>"},
		{name: "link", input: "see [go](https://go.dev)", want: `<p>see <a href="https://go.dev">go</a></p>`},
		{name: "image", input: "![alt text](a.png)", want: `<img src="a.png" alt="alt text">`},
		{name: "blockquote", input: "> quoted", want: "<blockquote>quoted</blockquote>"},
		{name: "unordered list", input: "- a\n- b", want: "<ul>\n<li>a</li>\n<li>b</li>\n</ul>"},
		{name: "ordered list", input: "1. a\n2. b", want: "<ol>\n<li>a</li>\n<li>b</li>\n</ol>"},
		{name: "blank lines", input: "one\n\ntwo", want: "<p>one</p>\n\n<p>two</p>"},
		{name: "whitespace line", input: "one\n   \ntwo", want: "<p>one</p>\n\n<p>two</p>"},
		{name: "crlf heading", input: "# Title\r\n\r\nhello", want: "<h1>Title</h1>\n\n<p>hello</p>"},
		{name: "crlf list", input: "- a\r\n- b", want: "<ul>\n<li>a</li>\n<li>b</li>\n</ul>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustRender(t, e, tc.input); got != tc.want {
				t.Fatalf("render %q:\nwant %q\ngot  %q", tc.input, tc.want, got)
			}
		})
	}
}

func TestEngineGoldenDocument(t *testing.T) {
	input, err := os.ReadFile(filepath.Join("testdata", "sample.md"))
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "sample.golden.html"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}

	e := plainEngine(t, markdown.Options{})
	if got := mustRender(t, e, string(input)); got != string(want) {
		t.Fatalf("golden mismatch:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestEngineCodeBlockWithoutHighlight(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	got := mustRender(t, e, "```\n<div> & \"x\"\n```")
	want := `<pre><code class="language-text">&lt;div&gt; &amp; &quot;x&quot;</code></pre>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngineCodeBlockContentIsNotRewritten(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	got := mustRender(t, e, "```bash\n# comment\n- item **x**\n```")
	want := `<pre><code class="language-bash"># comment` + "\n" + `- item **x**</code></pre>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngineUnknownLanguageFallsBackWithChroma(t *testing.T) {
	e := markdown.New(markdown.Options{})

	got := mustRender(t, e, "```foolang\nx < y\n```")
	want := `<pre><code class="language-foolang">x &lt; y</code></pre>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngineHighlightsFenceAliasesWithChroma(t *testing.T) {
	e := markdown.New(markdown.Options{})

	got := mustRender(t, e, "```js\nlet a = 1\n```")
	if !strings.HasPrefix(got, `<pre class="chroma github-dark"`) {
		t.Fatalf("expected js fence to be highlighted, got %q", got)
	}
}

func TestEngineHighlighterOutputIsUsed(t *testing.T) {
	factory := &countingFactory{}
	e := markdown.New(markdown.Options{
		HighlighterFactory: factory.build,
		ThemeConfig:        highlight.ThemeConfig{Themes: []string{"monokai"}},
	})

	got := mustRender(t, e, "```go\nfmt.Println()\n```")
	want := `<pre class="fake monokai"><code>go|fmt.Println()</code></pre>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}

	got = mustRender(t, e, "```\nraw\n```")
	want = `<pre class="fake monokai"><code>text|raw</code></pre>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngineHighlighterFailuresFallBack(t *testing.T) {
	factory := &countingFactory{}
	e := markdown.New(markdown.Options{HighlighterFactory: factory.build})

	cases := map[string]string{
		"unknown": `<pre><code class="language-unknown">a</code></pre>`,
		"explode": `<pre><code class="language-explode">a</code></pre>`,
	}
	for lang, want := range cases {
		got := mustRender(t, e, "```"+lang+"\na\n```")
		if got != want {
			t.Fatalf("%s: want %q, got %q", lang, want, got)
		}
	}
}

func TestEngineHighlighterBuiltOnceUnderConcurrency(t *testing.T) {
	factory := &countingFactory{}
	e := markdown.New(markdown.Options{HighlighterFactory: factory.build})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Render(context.Background(), "```go\nx\n```"); err != nil {
				t.Errorf("render: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := factory.calls.Load(); calls != 1 {
		t.Fatalf("expected highlighter to be built once, got %d", calls)
	}
}

func TestEngineHighlighterNotBuiltWhenDisabled(t *testing.T) {
	factory := &countingFactory{}
	e := markdown.New(markdown.Options{
		EnableHighlight:    markdown.Bool(false),
		HighlighterFactory: factory.build,
	})

	mustRender(t, e, "```go\nx\n```")
	if calls := factory.calls.Load(); calls != 0 {
		t.Fatalf("expected no highlighter build, got %d", calls)
	}
}

func TestEngineHighlighterBuildFailureIsRetried(t *testing.T) {
	factory := &countingFactory{}
	factory.fail.Store(true)
	e := markdown.New(markdown.Options{HighlighterFactory: factory.build})

	if _, err := e.Render(context.Background(), "hello"); err == nil {
		t.Fatalf("expected highlighter build error")
	} else if !strings.Contains(err.Error(), "grammar load failed") {
		t.Fatalf("unexpected error: %v", err)
	}

	factory.fail.Store(false)
	if got := mustRender(t, e, "hello"); got != "<p>hello</p>" {
		t.Fatalf("unexpected output after retry: %q", got)
	}
	if calls := factory.calls.Load(); calls != 2 {
		t.Fatalf("expected two build attempts, got %d", calls)
	}
}

func TestEngineUnknownThemeFailsRender(t *testing.T) {
	e := markdown.New(markdown.Options{
		ThemeConfig: highlight.ThemeConfig{Themes: []string{"no-such-theme"}},
	})

	_, err := e.Render(context.Background(), "hello")
	if !errors.Is(err, highlight.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestEngineCustomHighlightHook(t *testing.T) {
	factory := &countingFactory{}
	e := markdown.New(markdown.Options{
		HighlighterFactory: factory.build,
		HighlightOptions: markdown.HighlightOptions{
			Highlight: func(code, lang string) rules.Result {
				return rules.Resolved("<pre data-lang=\"" + lang + "\">" + code + "</pre>")
			},
		},
	})

	got := mustRender(t, e, "```js\nlet a\n```")
	if got != `<pre data-lang="js">let a</pre>` {
		t.Fatalf("unexpected hook output: %q", got)
	}
}

func TestEngineDeferredHighlightHookFallsBack(t *testing.T) {
	factory := &countingFactory{}
	e := markdown.New(markdown.Options{
		HighlighterFactory: factory.build,
		HighlightOptions: markdown.HighlightOptions{
			Highlight: func(code, lang string) rules.Result {
				return rules.Pending(rules.Go(context.Background(), func(context.Context) (string, error) {
					return "<pre>late</pre>", nil
				}))
			},
		},
	})

	got := mustRender(t, e, "```js\na < b\n```")
	want := `<pre><code class="language-js">a &lt; b</code></pre>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngineRemoveRule(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	e.RemoveRule(markdown.RuleBold)
	if got := mustRender(t, e, "**bold**"); strings.Contains(got, "<strong>") {
		t.Fatalf("bold rule should be removed, got %q", got)
	}

	before := e.Rules()
	e.RemoveRule("missing")
	if got := e.Rules(); !reflect.DeepEqual(before, got) {
		t.Fatalf("removing a missing rule changed the registry: %v -> %v", before, got)
	}
}

func TestEngineAddRuleOverwriteKeepsPosition(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	e.AddRuleFunc(markdown.RuleBold, func(text string) string {
		return strings.ReplaceAll(text, "**", "!!")
	})
	if got := e.Rules(); !reflect.DeepEqual(got, markdown.DefaultRuleNames) {
		t.Fatalf("overwrite should keep order, got %v", got)
	}
	if got := mustRender(t, e, "**x**"); got != "<p>!!x!!</p>" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineUseIsIdempotent(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	var installs int
	p := plugins.New("shout", func(h plugins.Host) {
		installs++
		h.AddRule("shout", rules.Func(strings.ToUpper))
	})

	e.Use(p)
	e.Use(p)

	if installs != 1 {
		t.Fatalf("expected one install, got %d", installs)
	}
	if got := e.GetPlugins(); len(got) != 1 || got[0].Name != "shout" {
		t.Fatalf("unexpected plugins: %+v", got)
	}
	if got := mustRender(t, e, "hi"); got != "<P>HI</P>" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEnginePluginsLastWriteWins(t *testing.T) {
	first := plugins.New("first", func(h plugins.Host) {
		h.AddRule("decorate", rules.Func(func(s string) string { return s + "[first]" }))
	})
	second := plugins.New("second", func(h plugins.Host) {
		h.AddRule("decorate", rules.Func(func(s string) string { return s + "[second]" }))
	})

	e := plainEngine(t, markdown.Options{Plugins: []plugins.Plugin{first, second}})

	got := mustRender(t, e, "x")
	if got != "<p>x</p>[second]" {
		t.Fatalf("unexpected output: %q", got)
	}
	names := e.GetPlugins()
	if len(names) != 2 || names[0].Name != "first" || names[1].Name != "second" {
		t.Fatalf("unexpected plugin order: %+v", names)
	}
}

func TestEnginePluginsDisabled(t *testing.T) {
	p := plugins.New("noop", func(h plugins.Host) {
		h.AddRule("marker", rules.Func(func(s string) string { return s + "!" }))
	})
	e := plainEngine(t, markdown.Options{
		EnablePlugins: markdown.Bool(false),
		Plugins:       []plugins.Plugin{p},
	})

	if len(e.GetPlugins()) != 0 {
		t.Fatalf("expected no plugins when disabled")
	}
	if got := mustRender(t, e, "x"); got != "<p>x</p>" {
		t.Fatalf("unexpected output: %q", got)
	}

	e.Use(p)
	if got := mustRender(t, e, "x"); got != "<p>x</p>!" {
		t.Fatalf("explicit Use should still install, got %q", got)
	}
}

func TestEnginePluginInstallPanicIsRecovered(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	e.Use(plugins.New("broken", func(h plugins.Host) {
		h.AddRule("partial", rules.Func(func(s string) string { return s + "~" }))
		panic("install failed")
	}))

	if !e.HasPlugin("broken") {
		t.Fatalf("expected plugin to stay registered")
	}
	if got := mustRender(t, e, "x"); got != "<p>x</p>~" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineAsyncRuleOrdering(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	e.AddRule("slow", rules.AsyncFunc(func(ctx context.Context, text string) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return text + "[slow]", nil
	}))
	e.AddRuleFunc("after", func(text string) string {
		return text + "[after]"
	})

	got := mustRender(t, e, "x")
	if got != "<p>x</p>[slow][after]" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineFailingRulesAreSkipped(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	e.AddRuleFunc("panics", func(string) string { panic("boom") })
	e.AddRule("errors", rules.AsyncFunc(func(context.Context, string) (string, error) {
		return "", errors.New("rule failed")
	}))
	e.AddRule("async_panics", rules.AsyncFunc(func(context.Context, string) (string, error) {
		panic("deferred boom")
	}))
	e.AddRuleFunc("tail", func(text string) string { return text + "|" })

	if got := mustRender(t, e, "x"); got != "<p>x</p>|" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineRenderHonoursCancellation(t *testing.T) {
	e := plainEngine(t, markdown.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Render(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	blocked := make(chan struct{})
	e.AddRule("block", rules.AsyncFunc(func(ctx context.Context, text string) (string, error) {
		<-blocked
		return text, nil
	}))
	defer close(blocked)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := e.Render(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEngineRenderAsyncMatchesRender(t *testing.T) {
	input := "# Title\n\nSome **text** with `code`.\n\n- a\n- b"

	for _, async := range []bool{false, true} {
		e := plainEngine(t, markdown.Options{EnableAsync: markdown.Bool(async)})

		want := mustRender(t, e, input)
		result := <-e.RenderAsync(context.Background(), input)
		if result.Err != nil {
			t.Fatalf("async=%v: unexpected error %v", async, result.Err)
		}
		if result.HTML != want {
			t.Fatalf("async=%v: want %q, got %q", async, want, result.HTML)
		}
	}
}

func TestEngineRenderAsyncReportsErrors(t *testing.T) {
	factory := &countingFactory{}
	factory.fail.Store(true)
	e := markdown.New(markdown.Options{
		EnableAsync:        markdown.Bool(true),
		HighlighterFactory: factory.build,
	})

	result, ok := <-e.RenderAsync(context.Background(), "x")
	if !ok || result.Err == nil {
		t.Fatalf("expected an error result, got %+v (ok=%v)", result, ok)
	}
}

func TestEngineSatisfiesRendererInterface(t *testing.T) {
	var renderer interfaces.MarkdownRenderer = plainEngine(t, markdown.Options{})
	if _, err := renderer.Render(context.Background(), "x"); err != nil {
		t.Fatalf("render: %v", err)
	}
}
