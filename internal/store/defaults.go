package store

// Hardcoded fallbacks used when the database is unreachable. Availability
// beats accuracy here: the bot keeps answering with last-known-good numbers
// instead of going dark.

// defaultStats mirrors the publicly advertised platform figures.
var defaultStats = PlatformStats{
	Bloggers:    1000,
	Advertisers: 500,
	Listings:    200,
	Reach:       1200000,
}

// DefaultFAQ returns the built-in FAQ entries, also used to seed a fresh
// database.
func DefaultFAQ() []FAQItem {
	return []FAQItem{
		{
			Question: "🚀 How do I get started?",
			Answer:   "Open @influenta_bot, register in under a minute and you are ready to go!",
		},
		{
			Question: "💰 What is the commission?",
			Answer:   "The platform is completely free! 0% commission for bloggers and advertisers.",
		},
		{
			Question: "📊 Where do I see statistics?",
			Answer:   "Open a blogger's profile — reach, engagement and other data are right there.",
		},
		{
			Question: "💬 How do I contact a blogger?",
			Answer:   "Press \"Propose collaboration\" on the blogger's page — the built-in chat opens.",
		},
		{
			Question: "✅ What is verification?",
			Answer:   "Verified bloggers passed an admin review and confirmed their statistics.",
		},
	}
}

// DefaultKnowledgeChunks returns the built-in knowledge base sections, also
// used to seed a fresh database.
func DefaultKnowledgeChunks() []struct{ Category, Content string } {
	return []struct{ Category, Content string }{
		{"About", "Influenta is an automated marketplace connecting bloggers and advertisers. It runs as a mini app inside the chat platform — nothing to install. Completely free, 0% commission. Over 1000 bloggers and a 1.2M combined audience already on board."},
		{"Registration", "1. Open @influenta_bot. 2. Pick a role (Blogger / Advertiser). 3. Fill in your profile. 4. Done — start working."},
		{"For bloggers", "Create a profile with your reach and per-post/per-story prices. Receive offers from advertisers, chat in the built-in messenger, accept or decline proposals."},
		{"For advertisers", "Search bloggers by category, reach and price. Check every blogger's statistics, send collaboration offers, publish your own listings."},
		{"Verification", "Bloggers can get verified: press \"Request verification\" in the profile, upload statistics screenshots, and the admin team reviews within 24 hours."},
		{"Pricing", "The platform is completely free. No hidden commissions, subscriptions or paid features."},
		{"Safety", "All data is protected. Keep communication inside the platform and report violations from any profile page."},
	}
}

// defaultKnowledgeBase renders the built-in chunks the same way the live
// knowledge base is rendered.
func defaultKnowledgeBase() string {
	return renderKnowledge(DefaultKnowledgeChunks())
}
