package player

import "context"

// PassthroughResolver hands every audiopath to the player unchanged. Used
// when no provider-specific content resolution is wired.
type PassthroughResolver struct{}

func (PassthroughResolver) ResolvePlaybackSource(ctx context.Context, req ResolveRequest) (ResolvedSource, error) {
	return ResolvedSource{}, nil
}

func (PassthroughResolver) ResolveMetadata(ctx context.Context, target string) (*Metadata, error) {
	return nil, nil
}

var _ ContentResolver = PassthroughResolver{}
