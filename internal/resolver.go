package internal

// BubbleFetcher is the slice of the global store the resolver needs
type BubbleFetcher interface {
	ReadBubbles(composerID string, bubbleIDs []string) (map[string]*RawBubble, error)
}

// ResolveHeaders expands a headers-only conversation into full turn bodies.
// All bubble IDs are collected and fetched in one batched query, then spliced
// back in header order. A header whose body is missing from the store keeps a
// stub with the type known and no text, so it classifies as empty downstream
// instead of silently disappearing.
func ResolveHeaders(fetcher BubbleFetcher, composerID string, headers []ConversationHeader) ([]*RawBubble, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.BubbleID)
	}

	bodies, err := fetcher.ReadBubbles(composerID, ids)
	if err != nil {
		return nil, err
	}

	resolved := make([]*RawBubble, 0, len(headers))
	missing := 0
	for _, h := range headers {
		if body, ok := bodies[h.BubbleID]; ok {
			if body.Type == 0 {
				body.Type = h.Type
			}
			resolved = append(resolved, body)
			continue
		}
		missing++
		resolved = append(resolved, &RawBubble{
			BubbleID:   h.BubbleID,
			ComposerID: composerID,
			Type:       h.Type,
		})
	}

	if missing > 0 {
		LogDebug("Composer %s: %d of %d bubble bodies missing, kept as stubs", composerID, missing, len(headers))
	}
	return resolved, nil
}
