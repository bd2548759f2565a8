// Package prompts builds the provider-agnostic prompts sent to text and image models.
// Everything here is pure: same input, same string.
package prompts

import (
	"fmt"
	"strings"
)

// Story is a trending headline used to steer keyword suggestions.
type Story struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
}

// ImageStyle selects one of the fixed illustration templates.
type ImageStyle string

const (
	// ImageStylePastel is a soft pastel stock photo.
	ImageStylePastel ImageStyle = "pastel"
	// ImageStyleMinimal is a minimalist stock photo in cool blues and purples.
	ImageStyleMinimal ImageStyle = "minimal"
)

// callToAction closes every post; the revision pass is asked to keep it.
const callToAction = "End the article in a creative way that subtly ties into AI customer service."

var forbiddenOpenings = []string{
	"In today's fast-paced world...",
	"Let's explore...",
	"In this blog post...",
	"It's no secret that...",
	"Have you ever wondered...",
	"In recent years...",
}

var hooks = []string{
	"A surprising fact or statistic that challenges common assumptions",
	"A thought-provoking \"what if\" scenario or question",
	"A real-world story or case study that illustrates the topic",
	"A relevant quote from an expert or thought leader",
	"A common misconception or myth about the topic",
	"A compelling \"before and after\" scenario",
	"A day-in-the-life example that readers can relate to",
	"A recent news headline or trending topic related to the subject",
	"A historical anecdote that ties to the present",
	"A personal experience that many readers might share",
	"A provocative statement that makes readers think differently",
	"A comparison between two contrasting ideas",
}

// Build returns the initial-generation prompt when previousDraft is empty and the
// revision prompt otherwise.
func Build(keyword, previousDraft string) string {
	if previousDraft == "" {
		return initial(keyword)
	}
	return revision(keyword, previousDraft)
}

func initial(keyword string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Can you please create a unique and interesting blog post in formatted markdown about %q. Here's what we need:\n\n", keyword)
	for _, line := range []string{
		"Write a long, detailed response.",
		"Use the style of a famous copywriter who writes engaging blogs.",
		"Explain your points step-by-step.",
		callToAction,
		"Make any bullet or numbered points at least three paragraphs long.",
		"Use simple language and grammar, suitable for a high school reading level.",
		"Avoid complex words or jargon. If you must use technical terms, explain them clearly.",
		"Keep sentences short and easy to understand.",
		"Use everyday examples to illustrate your points.",
	} {
		sb.WriteString("- " + line + "\n")
	}

	sb.WriteString("\nTo make the blog post sound more personal and less like an AI:\n")
	for _, line := range []string{
		"Avoid generic openings like \"Let's start with the obvious\" or \"It's no secret that\".",
		"Use casual, conversational language as if chatting with a friend.",
		"Share opinions or experiences that feel authentic and personal.",
		"Include real-world specific examples or stories to illustrate points.",
		"Vary sentence structure to create a natural rhythm.",
	} {
		sb.WriteString("- " + line + "\n")
	}

	sb.WriteString("\nYou should start the blog post with one of these engaging hooks:\n")
	for _, h := range hooks {
		sb.WriteString("- " + h + "\n")
	}

	sb.WriteString("\nThe opening should immediately grab attention and make readers want to learn more. Avoid generic or AI-like introductions such as:\n")
	for _, o := range forbiddenOpenings {
		sb.WriteString("- \"" + o + "\"\n")
	}

	sb.WriteString("\nRemember, write only the formatted markdown for the blog post. It should not be contained in a markdown backtick block. Thanks!")
	return sb.String()
}

func revision(keyword, previousDraft string) string {
	return fmt.Sprintf("Can you please add to and improve the following blog post about %s based on the previous content:'''\n\n%s\n\n''' "+
		"What were some phrases used that sound like they were written by an AI? Correct them. "+
		"Rewrite the entire blog post to sound like a different person. %s "+
		"Please only respond with the formatted markdown for the blog post. It should not be contained in a markdown backtick block. Thank you!",
		keyword, previousDraft, callToAction)
}

// Image returns the illustration prompt for keyword in the given style.
func Image(style ImageStyle, keyword string) string {
	switch style {
	case ImageStyleMinimal:
		return fmt.Sprintf("DSC_89741.jpeg A stock style photo for a blog post about %q.  Minimalist with a soft and cool tone (blues and purples)", keyword)
	default:
		return fmt.Sprintf("Create a soft pastel stock style photo for a blog post about %s.", keyword)
	}
}

// Keywords asks for blog titles on topic, informed by the trending stories.
func Keywords(topic string, stories []Story) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Given the topic %q and the following trending stories:\n\n", topic)
	for i, s := range stories {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s.Title)
	}
	sb.WriteString("\nGenerate a list of 30 relevant titles that would be good for writing blog posts about this topic, " +
		"some that consider the current trending stories and most that are best in general like listicles, how to's, etc.  " +
		"The response should only contain the titles with one title per line. ")
	return sb.String()
}
