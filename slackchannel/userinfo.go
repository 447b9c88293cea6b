package slackchannel

import (
	"context"
	"fmt"

	"github.com/alexandre-normand/eurekabot"
	lru "github.com/hashicorp/golang-lru"
	"github.com/slack-go/slack"
)

// userInfoFinder is implemented by any value that can look up a slack user's info.
//
// slack.Client implements this interface
type userInfoFinder interface {
	// GetUserInfoContext gets a user's info. See https://godoc.org/github.com/slack-go/slack#Client.GetUserInfoContext for more details
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// cachingUserInfoFinder loads user info with its loader and keeps it in an ARC cache
type cachingUserInfoFinder struct {
	loader userInfoFinder
	log    eurekabot.SLogger
	cache  *lru.ARCCache
}

// newCachingUserInfoFinder returns a userInfoFinder caching up to cacheSize users. A size of 0 or less disables
// caching and every lookup goes to the loader
func newCachingUserInfoFinder(cacheSize int, loader userInfoFinder, log eurekabot.SLogger) (uf userInfoFinder, err error) {
	if cacheSize <= 0 {
		return loader, nil
	}

	cache, err := lru.NewARC(cacheSize)
	if err != nil {
		return nil, err
	}

	return &cachingUserInfoFinder{loader: loader, log: log, cache: cache}, nil
}

// GetUserInfoContext returns the cached user info or loads and caches it when missing
func (c *cachingUserInfoFinder) GetUserInfoContext(ctx context.Context, userID string) (u *slack.User, err error) {
	if cached, ok := c.cache.Get(userID); ok {
		user, ok := cached.(slack.User)
		if !ok {
			return nil, fmt.Errorf("error converting cached value for user id [%s]", userID)
		}

		return &user, nil
	}

	c.log.Debugf("User info for [%s] not found in cache, retrieving from slack and saving\n", userID)
	u, err = c.loader.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(userID, *u)

	return u, nil
}
