// Package markdown renders the static HTML fallback embedded in interactive
// artifacts and splits optional front matter from uploaded documents.
package markdown
