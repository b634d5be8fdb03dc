package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/disiqueira/gotree/v3"
	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/models"
)

const orphanMarker = " (orphan)"

// RenderModuleOutline renders modules and their lessons as a text tree.
// Lessons are nested by their Depth so the output mirrors the display order.
func RenderModuleOutline(rootLabel string, modules []models.Module, log *logrus.Entry) string {
	root := gotree.New(rootLabel)
	for _, m := range modules {
		label := m.Slug
		if m.Title != "" {
			label = fmt.Sprintf("%s - %s", m.Slug, m.Title)
		}
		if m.Badge != "" {
			label += " [" + m.Badge + "]"
		}
		moduleNode := root.Add(label)

		// stack[d] is the node lessons of depth d attach to
		stack := []gotree.Tree{moduleNode}
		for _, l := range m.Lessons {
			depth := l.Depth
			if depth >= len(stack) {
				log.Debugf("Lesson %s/%s has depth %d beyond parent chain, clamping", m.Slug, l.Slug, depth)
				depth = len(stack) - 1
			}
			text := fmt.Sprintf("%s: %s", l.Slug, l.Title)
			if l.Orphan {
				text += orphanMarker
			}
			node := stack[depth].Add(text)
			stack = append(stack[:depth+1], node)
		}
	}
	return root.Print()
}

// WriteModuleOutline writes the rendered outline to w with a header line.
func WriteModuleOutline(w io.Writer, rootLabel string, modules []models.Module, log *logrus.Entry) error {
	lessonCount := 0
	for _, m := range modules {
		lessonCount += len(m.Lessons)
	}
	header := fmt.Sprintf("Course outline: %d modules, %d lessons", len(modules), lessonCount)
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", header, strings.Repeat("=", len(header))); err != nil {
		return err
	}
	_, err := io.WriteString(w, RenderModuleOutline(rootLabel, modules, log))
	return err
}
