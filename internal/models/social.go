package models

import "time"

// Subscription is a (listener, podcast) membership edge.
type Subscription struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	PodcastID string    `db:"podcast_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Follow is a directed follower → following edge between users.
type Follow struct {
	FollowerID  string    `db:"follower_id"`
	FollowingID string    `db:"following_id"`
	CreatedAt   time.Time `db:"created_at"`
}
