// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"rivaas.dev/courier/config"
	"rivaas.dev/courier/dispatch"
	"rivaas.dev/courier/metrics"
)

var (
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	providerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	methodStyles = map[string]lipgloss.Style{
		http.MethodGet:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		http.MethodPost:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		http.MethodPut:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		http.MethodDelete: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		http.MethodPatch:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	}
)

// colorWriter downsamples colors to what w supports. Production output
// never carries ANSI sequences.
func (a *App) colorWriter(w io.Writer) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if a.settings.Environment == config.EnvironmentProduction {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

func (a *App) development() bool {
	return a.settings.Environment == config.EnvironmentDevelopment
}

// PrintBanner writes the startup banner for a server listening on addr.
// In development it ends with the routes table.
func (a *App) PrintBanner(out io.Writer, addr string) {
	w := a.colorWriter(out)
	base := "http://" + displayAddr(addr)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(renderFigure(a.settings.AppName, a.development()))
	b.WriteString("\n")

	section(&b, "Service")
	line(&b, "Version:", valueStyle.Foreground(lipgloss.Color("14")).Render(a.settings.AppVersion))
	line(&b, "Environment:", valueStyle.Foreground(lipgloss.Color("11")).Render(a.settings.Environment))
	line(&b, "Address:", valueStyle.Foreground(lipgloss.Color("10")).Render(base))

	b.WriteString("\n")
	section(&b, "Observability")
	switch {
	case a.metrics == nil:
		line(&b, "Metrics:", disabledStyle.Render("Disabled"))
	case a.metrics.Provider() == metrics.PrometheusProvider:
		line(&b, "Metrics:", valueStyle.Foreground(lipgloss.Color("13")).Render(base+metrics.ExpositionPath)+"  "+bracket(a.metrics.Provider()))
	default:
		line(&b, "Metrics:", valueStyle.Foreground(lipgloss.Color("13")).Render("Enabled")+"  "+bracket(a.metrics.Provider()))
	}
	if a.tracer == nil {
		line(&b, "Tracing:", disabledStyle.Render("Disabled"))
	} else {
		line(&b, "Tracing:", valueStyle.Foreground(lipgloss.Color("12")).Render("Enabled")+"  "+bracket(a.tracer.Provider()))
	}

	b.WriteString("\n")
	section(&b, "Storage")
	line(&b, "Cache:", valueStyle.Render(a.cacheKind))
	database := "memory"
	if a.pool != nil {
		database = "postgres"
	}
	line(&b, "Database:", valueStyle.Render(database))

	if a.settings.EnableSwagger {
		b.WriteString("\n")
		section(&b, "Documentation")
		line(&b, "API Docs:", valueStyle.Foreground(lipgloss.Color("14")).Render(base+dispatch.DocsPath))
		line(&b, "OpenAPI:", valueStyle.Foreground(lipgloss.Color("14")).Render(base+dispatch.ContractPath))
	}

	_, _ = fmt.Fprint(w, b.String())
	if a.development() {
		_, _ = fmt.Fprintln(w)
		a.renderRoutes(w, out, 80)
	}
	_, _ = fmt.Fprintln(w)
}

// PrintRoutes writes the routes table.
func (a *App) PrintRoutes(out io.Writer) {
	if len(a.registry.Routes()) == 0 {
		_, _ = fmt.Fprintln(out, "No routes registered")
		return
	}
	a.renderRoutes(a.colorWriter(out), out, 120)
}

// renderRoutes draws the table on w, no wider than out's terminal when out
// is one.
func (a *App) renderRoutes(w io.Writer, out io.Writer, width int) {
	routes := a.registry.Routes()
	if len(routes) == 0 {
		return
	}

	colors := a.development()
	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		method := r.Method
		if style, ok := methodStyles[method]; ok && colors {
			method = style.Render(method)
		}
		summary := r.Summary
		if r.Hidden {
			summary = "(hidden) " + summary
		}
		rows = append(rows, []string{method, r.Template, strings.TrimSpace(summary), strings.Join(r.Tags, ", ")})
	}

	if f, ok := out.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			width = min(width, tw)
		}
	}

	border := lipgloss.NewStyle()
	if colors {
		border = border.Foreground(lipgloss.Color("240"))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow && colors {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("Method", "Path", "Summary", "Tags").
		Rows(rows...).
		Width(max(60, width))

	_, _ = fmt.Fprintln(w, t.Render())
}

func renderFigure(name string, development bool) string {
	gradient := []string{"10", "11"}
	if development {
		gradient = []string{"12", "14", "10", "11"}
	}

	var b strings.Builder
	for _, row := range figure.NewFigure(name, "", false).Slicify() {
		if strings.TrimSpace(row) == "" {
			b.WriteString("\n")
			continue
		}
		for i, char := range row {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			b.WriteString(style.Render(string(char)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(categoryStyle.Render(title) + "\n")
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label) + "  " + value + "\n")
}

func bracket(v any) string {
	return providerStyle.Render(fmt.Sprintf("[%s]", v))
}

// displayAddr shows unspecified hosts as 0.0.0.0.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "::" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, port)
}
