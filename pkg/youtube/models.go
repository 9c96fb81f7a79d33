package youtube

type searchResponse struct {
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
			VideoID   string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type commentThreadsResponse struct {
	Items []CommentThread `json:"items"`
}

// CommentThread is one top-level comment with its snippet.
type CommentThread struct {
	Snippet struct {
		TopLevelComment struct {
			Snippet CommentSnippet `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
}

// CommentSnippet carries the comment fields the pipeline reads.
type CommentSnippet struct {
	AuthorDisplayName string `json:"authorDisplayName"`
	TextDisplay       string `json:"textDisplay"`
	AuthorChannelID   struct {
		Value string `json:"value"`
	} `json:"authorChannelId"`
}

// Author returns the commenter's channel id.
func (t CommentThread) Author() string {
	return t.Snippet.TopLevelComment.Snippet.AuthorChannelID.Value
}

// DisplayName returns the commenter's display name.
func (t CommentThread) DisplayName() string {
	return t.Snippet.TopLevelComment.Snippet.AuthorDisplayName
}

// Text returns the comment body.
func (t CommentThread) Text() string {
	return t.Snippet.TopLevelComment.Snippet.TextDisplay
}

type channelsResponse struct {
	Items []struct {
		ID           string `json:"id"`
		TopicDetails struct {
			TopicCategories []string `json:"topicCategories"`
		} `json:"topicDetails"`
	} `json:"items"`
}
