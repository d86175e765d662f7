package models

// Reaction is a user's vote on a post
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Opposite returns the reaction that a toggle of r clears
func (r Reaction) Opposite() Reaction {
	if r == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// JoinTable returns the table recording who gave reaction r
func (r Reaction) JoinTable() string {
	if r == ReactionLike {
		return PostLike{}.TableName()
	}
	return PostDislike{}.TableName()
}
