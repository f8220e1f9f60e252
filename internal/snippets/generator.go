// Package snippets generates integration code for embedding splitkit
// experiments into a site: live snippets that call the assignment API,
// and static snippets once a winner has been declared.
package snippets

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

type Framework string

const (
	FrameworkHTML  Framework = "html"
	FrameworkReact Framework = "react"
	FrameworkVue   Framework = "vue"
)

// Config describes the experiment being embedded.
type Config struct {
	ServerURL    string
	ExperimentID string
	// Variations maps variation name to the content shown for it.
	Variations map[string]string
	// Winner, when non-empty, produces a static snippet with only the
	// winning variation and no experiment logic.
	Winner string
}

// SnippetFile is one generated file
type SnippetFile struct {
	Name    string
	Content string
}

type templateData struct {
	ServerURL      string
	ExperimentID   string
	ComponentName  string
	VariationsJSON string
	WinnerContent  string
}

// Generate produces the snippet files for a framework. Winner set in the
// config short-circuits to the static form.
func Generate(framework Framework, config Config) ([]SnippetFile, error) {
	data, err := buildTemplateData(config)
	if err != nil {
		return nil, err
	}

	if config.Winner != "" {
		return generateStaticWinner(framework, data)
	}

	switch framework {
	case FrameworkHTML:
		return generateHTML(data)
	case FrameworkReact:
		return generateReact(data)
	case FrameworkVue:
		return generateVue(data)
	default:
		return nil, fmt.Errorf("unsupported framework: %s", framework)
	}
}

func buildTemplateData(config Config) (templateData, error) {
	variationsJSON, err := json.Marshal(config.Variations)
	if err != nil {
		return templateData{}, fmt.Errorf("failed to marshal variations: %w", err)
	}

	winnerContent := ""
	if config.Winner != "" {
		winnerContent = config.Variations[config.Winner]
	}

	return templateData{
		ServerURL:      config.ServerURL,
		ExperimentID:   config.ExperimentID,
		ComponentName:  toPascalCase(config.ExperimentID),
		VariationsJSON: string(variationsJSON),
		WinnerContent:  winnerContent,
	}, nil
}

func toPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, p := range parts {
		parts[i] = strings.Title(p)
	}
	return strings.Join(parts, "")
}

func renderTemplate(name, content string, data templateData) (string, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return sb.String(), nil
}

func generateStaticWinner(framework Framework, data templateData) ([]SnippetFile, error) {
	const tmpl = `<!-- {{.ExperimentID}}: winner declared, experiment logic removed -->
<h1>{{.WinnerContent}}</h1>
`
	content, err := renderTemplate("static", tmpl, data)
	if err != nil {
		return nil, err
	}
	name := "snippet.html"
	if framework == FrameworkReact {
		name = data.ComponentName + ".jsx"
		content = fmt.Sprintf("export default function %s() {\n  return <h1>%s</h1>;\n}\n",
			data.ComponentName, data.WinnerContent)
	}
	return []SnippetFile{{Name: name, Content: content}}, nil
}

func generateHTML(data templateData) ([]SnippetFile, error) {
	const tmpl = `<script src="{{.ServerURL}}/sdk.js" defer></script>

<h1
  data-sk-experiment="{{.ExperimentID}}"
  data-sk-variations='{{.VariationsJSON}}'
>
</h1>

<button data-sk-convert="{{.ExperimentID}}">Sign Up</button>
`
	content, err := renderTemplate("html", tmpl, data)
	if err != nil {
		return nil, err
	}
	return []SnippetFile{{Name: "snippet.html", Content: content}}, nil
}

func generateReact(data templateData) ([]SnippetFile, error) {
	const tmpl = `import { useEffect, useState } from 'react';

const SERVER_URL = '{{.ServerURL}}';
const EXPERIMENT = '{{.ExperimentID}}';
const VARIATIONS = {{.VariationsJSON}};

function visitorId() {
  let vid = localStorage.getItem('sk_vid');
  if (!vid) {
    vid = crypto.randomUUID();
    localStorage.setItem('sk_vid', vid);
  }
  return vid;
}

export default function {{.ComponentName}}() {
  const [text, setText] = useState('');

  useEffect(() => {
    fetch(SERVER_URL + '/assign', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ experiment: EXPERIMENT, visitor_id: visitorId() }),
    })
      .then((r) => r.json())
      .then((data) => setText(VARIATIONS[data.variation] ?? ''));
  }, []);

  const convert = () => {
    fetch(SERVER_URL + '/e', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ experiment: EXPERIMENT, visitor_id: visitorId(), event: 'conversion' }),
    });
  };

  return (
    <>
      <h1>{text}</h1>
      <button onClick={convert}>Sign Up</button>
    </>
  );
}
`
	content, err := renderTemplate("react", tmpl, data)
	if err != nil {
		return nil, err
	}
	return []SnippetFile{{Name: data.ComponentName + ".jsx", Content: content}}, nil
}

func generateVue(data templateData) ([]SnippetFile, error) {
	const tmpl = `<script setup>
import { onMounted, ref } from 'vue';

const SERVER_URL = '{{.ServerURL}}';
const EXPERIMENT = '{{.ExperimentID}}';
const VARIATIONS = {{.VariationsJSON}};

const text = ref('');

function visitorId() {
  let vid = localStorage.getItem('sk_vid');
  if (!vid) {
    vid = crypto.randomUUID();
    localStorage.setItem('sk_vid', vid);
  }
  return vid;
}

onMounted(async () => {
  const r = await fetch(SERVER_URL + '/assign', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ experiment: EXPERIMENT, visitor_id: visitorId() }),
  });
  const data = await r.json();
  text.value = VARIATIONS[data.variation] ?? '';
});

function convert() {
  fetch(SERVER_URL + '/e', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ experiment: EXPERIMENT, visitor_id: visitorId(), event: 'conversion' }),
  });
}
</script>

<template>
  <h1>{{ "{{ text }}" }}</h1>
  <button @click="convert">Sign Up</button>
</template>
`
	content, err := renderTemplate("vue", tmpl, data)
	if err != nil {
		return nil, err
	}
	return []SnippetFile{{Name: data.ComponentName + ".vue", Content: content}}, nil
}

// AllFrameworks lists the supported frameworks in display order.
func AllFrameworks() []Framework {
	return []Framework{FrameworkHTML, FrameworkReact, FrameworkVue}
}
