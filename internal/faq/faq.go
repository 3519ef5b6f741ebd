package faq

// Entry is one canned question/answer pair.
type Entry struct {
	Question string
	Answer   string
}

// Store is an ordered, read-only FAQ corpus. The zero value is an empty store.
// It is safe for concurrent use because nothing mutates it after construction.
type Store struct {
	entries []Entry
}

// NewStore copies entries into a new Store, preserving their order.
func NewStore(entries []Entry) *Store {
	return &Store{entries: append([]Entry(nil), entries...)}
}

// Entries returns a copy of the corpus in store order.
func (s *Store) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

// Len reports the number of entries.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

var civicEntries = []Entry{
	{
		Question: "How does this work?",
		Answer: "The system works in a very straightforward way. First, it asks you to take a photo of the issue you are noticing — for example, a pothole, broken streetlight, or garbage dump. " +
			"Along with the photo, the system automatically records your location and pins it on a digital map. The built-in AI then analyses the photo to detect the type of problem. " +
			"If you feel the AI has missed something, you can manually add details about the issue. Once submitted, the system classifies your report into categories such as road damage, streetlight faults, sanitation issues, and so on. " +
			"After classification, the report is sent to the concerned authority. An official in charge is assigned, and you will receive updates as the issue moves through the resolution process.",
	},
	{
		Question: "How to use?",
		Answer: "Using the app is designed to be as simple as possible. All you need to do is click a photo of the problem you want to report — that's it. " +
			"The AI automatically takes care of analysing, categorising, and forwarding the issue. If you are not satisfied with the automatic classification, you also have the option to add additional details or manually correct the category. " +
			"This way, the system ensures both ease of use and flexibility for more complex reports.",
	},
	{
		Question: "What is happening now?",
		Answer: "Once you have submitted your report, the authorities take over the resolution process. A nodal officer is officially assigned to your case. " +
			"This officer is responsible for reviewing the issue, coordinating with the relevant department, and ensuring that action is taken. " +
			"You will continue to get updates as the officer progresses with your case until the issue is resolved.",
	},
	{
		Question: "What is the status of my request?",
		Answer: "You can check the live status of your request in your profile section within the app. " +
			"The authorities will provide regular updates, such as when an officer has been assigned, when work has started, and when the issue is resolved. " +
			"This way, you are always kept informed about the progress without needing to chase the authorities separately.",
	},
	{
		Question: "What can I do if it has not been resolved?",
		Answer: "If your reported issue has not been addressed within a reasonable time, you have escalation options. You can directly contact the officer who has been assigned to your case to follow up. " +
			"If the problem still remains unresolved despite your follow-up, you also have the right to file a formal complaint against the officer or department responsible. " +
			"This ensures accountability and motivates timely resolution of civic issues.",
	},
}

var defaultStore = NewStore(civicEntries)

// Default returns the civic-issue FAQ corpus loaded at process start.
func Default() *Store {
	return defaultStore
}
