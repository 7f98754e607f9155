// Package persona renders the fixed instructional text used as the "system"
// role content of every completion request. The subject's profile data lives
// in an embedded YAML file; the prompt is rendered exactly once at process
// start and shared read-only by all concurrent requests.
package persona

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var profileYAML []byte

// Profile is the structured subject data behind the system prompt.
type Profile struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	CurrentRole string `yaml:"current_role"`
	Location    string `yaml:"location"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
	LinkedIn    string `yaml:"linkedin"`
	GitHub      string `yaml:"github"`

	Education  []string `yaml:"education"`
	Experience []struct {
		Role       string   `yaml:"role"`
		Highlights []string `yaml:"highlights"`
	} `yaml:"experience"`
	Skills         []string `yaml:"skills"`
	Projects       []string `yaml:"projects"`
	Publications   []string `yaml:"publications"`
	Certifications []string `yaml:"certifications"`
	Languages      []string `yaml:"languages"`
	Guidance       string   `yaml:"guidance"`
}

var systemPrompt = mustRender()

// SystemPrompt returns the fixed persona context. Pure accessor: no
// parameters, no failure modes, same string on every call.
func SystemPrompt() string {
	return systemPrompt
}

// mustRender parses the embedded profile and renders the prompt. The profile
// is a compile-time asset; a parse failure is a programmer error.
func mustRender() string {
	var p Profile
	if err := yaml.Unmarshal(profileYAML, &p); err != nil {
		panic(fmt.Sprintf("persona: parse embedded profile: %v", err))
	}
	return render(p)
}

// render produces the system prompt text from a profile.
func render(p Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant representing %s, an %s. Here's what you should know about him:\n\n", p.Name, p.Title)

	b.WriteString("PERSONAL INFO:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Current Role: %s\n", p.CurrentRole)
	fmt.Fprintf(&b, "- Location: %s\n", p.Location)
	fmt.Fprintf(&b, "- Email: %s\n", p.Email)
	fmt.Fprintf(&b, "- Phone: %s\n", p.Phone)
	fmt.Fprintf(&b, "- LinkedIn: %s\n", p.LinkedIn)
	fmt.Fprintf(&b, "- GitHub: %s\n", p.GitHub)

	writeSection(&b, "EDUCATION", p.Education)

	b.WriteString("\nWORK EXPERIENCE:\n")
	for i, exp := range p.Experience {
		fmt.Fprintf(&b, "%d. %s:\n", i+1, exp.Role)
		for _, h := range exp.Highlights {
			fmt.Fprintf(&b, "   - %s\n", h)
		}
	}

	writeSection(&b, "TECHNICAL SKILLS", p.Skills)
	writeSection(&b, "PROJECTS", p.Projects)
	writeSection(&b, "PUBLICATIONS", p.Publications)
	writeSection(&b, "CERTIFICATIONS", p.Certifications)
	writeSection(&b, "LANGUAGES", p.Languages)

	b.WriteString("\n")
	b.WriteString(p.Guidance)

	return b.String()
}

func writeSection(b *strings.Builder, header string, items []string) {
	fmt.Fprintf(b, "\n%s:\n", header)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
