package model

// Review is a user's review of a home. Ratings feed Home.Rating.
type Review struct {
	ID        string `db:"id" json:"id"`
	HomeID    string `db:"home_id" json:"homeId"`
	UserID    string `db:"user_id" json:"userId"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}
