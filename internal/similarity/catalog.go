package similarity

// Catalog is the precomputed media set served by the default index. In
// production this is rebuilt from the tracker database; the static seed keeps
// the agent usable without one.
var Catalog = []Item{
	{
		ID: "media-001", Title: "Inception", Year: "2010", MediaType: "movie",
		Genres: "science fiction, heist, thriller", Rating: 8.4,
		Overview: "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea into the mind of a CEO. Mind-bending layered dreams, a twisting heist plot and questions about what is real.",
	},
	{
		ID: "media-002", Title: "Interstellar", Year: "2014", MediaType: "movie",
		Genres: "science fiction, drama, space", Rating: 8.4,
		Overview: "A team of explorers travel through a wormhole in space in an attempt to ensure humanity's survival. Time dilation, black holes and a father's promise across galaxies.",
	},
	{
		ID: "media-003", Title: "The Matrix", Year: "1999", MediaType: "movie",
		Genres: "science fiction, action, cyberpunk", Rating: 8.2,
		Overview: "A computer hacker learns the world he lives in is a simulated reality and joins a rebellion against the machines controlling it. Reality-questioning action with iconic style.",
	},
	{
		ID: "media-004", Title: "Shutter Island", Year: "2010", MediaType: "movie",
		Genres: "psychological thriller, mystery", Rating: 8.2,
		Overview: "A U.S. Marshal investigates the disappearance of a patient from a hospital for the criminally insane and starts doubting his own mind. Dark psychological twists and an unreliable narrator.",
	},
	{
		ID: "media-005", Title: "Memento", Year: "2000", MediaType: "movie",
		Genres: "psychological thriller, mystery, neo-noir", Rating: 8.2,
		Overview: "A man with short-term memory loss hunts his wife's killer using notes and tattoos, told in reverse. Puzzle-box structure where nothing can be trusted.",
	},
	{
		ID: "media-006", Title: "The Prestige", Year: "2006", MediaType: "movie",
		Genres: "mystery, drama, thriller", Rating: 8.2,
		Overview: "Two rival stage magicians in Victorian London engage in an escalating battle of obsession and sacrifice to create the ultimate illusion. Twists, secrets and obsession.",
	},
	{
		ID: "media-007", Title: "Blade Runner 2049", Year: "2017", MediaType: "movie",
		Genres: "science fiction, neo-noir, dystopia", Rating: 8.0,
		Overview: "A young blade runner unearths a long-buried secret that leads him to track down former blade runner Rick Deckard. Slow-burn atmospheric sci-fi about memory and identity.",
	},
	{
		ID: "media-008", Title: "Parasite", Year: "2019", MediaType: "movie",
		Genres: "thriller, dark comedy, drama", Rating: 8.5,
		Overview: "A poor family schemes its way into the household of a wealthy one, until an unexpected incident unravels everything. Class satire that shifts genres without warning.",
	},
	{
		ID: "media-009", Title: "The Godfather", Year: "1972", MediaType: "movie",
		Genres: "crime, drama", Rating: 8.7,
		Overview: "The aging patriarch of an organized crime dynasty transfers control of his empire to his reluctant son. Family, power and the cost of loyalty.",
	},
	{
		ID: "media-010", Title: "Goodfellas", Year: "1990", MediaType: "movie",
		Genres: "crime, biography, drama", Rating: 8.5,
		Overview: "The rise and fall of mob associate Henry Hill across three decades of organized crime. Fast, violent and narrated from the inside.",
	},
	{
		ID: "media-011", Title: "Whiplash", Year: "2014", MediaType: "movie",
		Genres: "drama, music", Rating: 8.4,
		Overview: "A promising young drummer enrolls at a cut-throat music conservatory where an abusive instructor pushes him to the brink. Obsession with greatness at any cost.",
	},
	{
		ID: "media-012", Title: "Arrival", Year: "2016", MediaType: "movie",
		Genres: "science fiction, drama", Rating: 7.9,
		Overview: "A linguist is recruited to communicate with alien visitors whose language reshapes how she experiences time. Cerebral first-contact story about grief and choice.",
	},
	{
		ID: "media-013", Title: "Gone Girl", Year: "2014", MediaType: "movie",
		Genres: "psychological thriller, mystery", Rating: 8.1,
		Overview: "A husband becomes the prime suspect when his wife disappears and the media circus turns on him. Twisting unreliable narrators and a famously dark midpoint reveal.",
	},
	{
		ID: "media-014", Title: "Se7en", Year: "1995", MediaType: "movie",
		Genres: "crime, psychological thriller, neo-noir", Rating: 8.3,
		Overview: "Two detectives hunt a serial killer who stages murders after the seven deadly sins. Grim rain-soaked noir with an unforgettable ending.",
	},
	{
		ID: "media-015", Title: "Spirited Away", Year: "2001", MediaType: "movie",
		Genres: "animation, fantasy, adventure", Rating: 8.5,
		Overview: "A ten-year-old girl wanders into a world of spirits and must work in a bathhouse to free her parents. Lush hand-drawn fantasy about courage and identity.",
	},
	{
		ID: "media-016", Title: "Everything Everywhere All at Once", Year: "2022", MediaType: "movie",
		Genres: "science fiction, comedy, action", Rating: 7.9,
		Overview: "A laundromat owner is swept into a multiverse adventure where she alone can save existence. Maximalist genre-hopping about family and meaning.",
	},
	{
		ID: "media-017", Title: "Dune", Year: "2021", MediaType: "movie",
		Genres: "science fiction, adventure, epic", Rating: 7.8,
		Overview: "The heir of a noble family travels to the most dangerous planet in the universe to secure the future of his people. Sweeping desert-planet politics and prophecy.",
	},
	{
		ID: "media-018", Title: "Oppenheimer", Year: "2023", MediaType: "movie",
		Genres: "biography, drama, history", Rating: 8.1,
		Overview: "The story of the physicist who led the effort to build the atomic bomb and the reckoning that followed. Dense nonlinear biography of genius and guilt.",
	},
	{
		ID: "media-019", Title: "Breaking Bad", Year: "2008", MediaType: "tv",
		Genres: "crime, drama, thriller", Rating: 8.9,
		Overview: "A chemistry teacher diagnosed with cancer starts cooking methamphetamine to secure his family's future and transforms into a ruthless criminal. Slow moral corrosion over five seasons.",
	},
	{
		ID: "media-020", Title: "Better Call Saul", Year: "2015", MediaType: "tv",
		Genres: "crime, drama, legal", Rating: 8.7,
		Overview: "The tragicomic transformation of a small-time lawyer into a cartel attorney. Meticulous character study in the same universe as Breaking Bad.",
	},
	{
		ID: "media-021", Title: "Dark", Year: "2017", MediaType: "tv",
		Genres: "science fiction, mystery, thriller", Rating: 8.7,
		Overview: "Four families in a German town unravel a time-travel conspiracy spanning generations. Intricate knotted timelines and bleak determinism.",
	},
	{
		ID: "media-022", Title: "Severance", Year: "2022", MediaType: "tv",
		Genres: "science fiction, psychological thriller, mystery", Rating: 8.7,
		Overview: "Office workers have their memories surgically divided between work and personal lives, until one of them starts to question everything. Unsettling corporate dystopia.",
	},
	{
		ID: "media-023", Title: "True Detective", Year: "2014", MediaType: "tv",
		Genres: "crime, mystery, anthology", Rating: 8.9,
		Overview: "Seasonal anthology of detectives consumed by cases that span decades. Philosophical noir with haunted investigators.",
	},
	{
		ID: "media-024", Title: "The Wire", Year: "2002", MediaType: "tv",
		Genres: "crime, drama", Rating: 9.3,
		Overview: "The drug trade, the docks, city hall, the schools and the press of Baltimore, each season widening the lens. Sprawling institutional portrait of an American city.",
	},
	{
		ID: "media-025", Title: "Black Mirror", Year: "2011", MediaType: "tv",
		Genres: "science fiction, anthology, dystopia", Rating: 8.7,
		Overview: "An anthology exploring the dark side of technology and modern society, one self-contained nightmare at a time.",
	},
	{
		ID: "media-026", Title: "Stranger Things", Year: "2016", MediaType: "tv",
		Genres: "science fiction, horror, adventure", Rating: 8.6,
		Overview: "Kids in a 1980s small town confront a secret laboratory, a missing friend and a monstrous parallel dimension. Nostalgic supernatural adventure.",
	},
	{
		ID: "media-027", Title: "Chernobyl", Year: "2019", MediaType: "tv",
		Genres: "drama, history, disaster", Rating: 9.3,
		Overview: "A dramatization of the 1986 nuclear plant disaster and the cost of the lies that surrounded it. Procedural horror built from bureaucratic denial.",
	},
	{
		ID: "media-028", Title: "The Sopranos", Year: "1999", MediaType: "tv",
		Genres: "crime, drama", Rating: 9.2,
		Overview: "A New Jersey mob boss balances family life and organized crime while seeing a psychiatrist. The template for prestige antihero drama.",
	},
	{
		ID: "media-029", Title: "Mindhunter", Year: "2017", MediaType: "tv",
		Genres: "crime, psychological thriller, drama", Rating: 8.6,
		Overview: "FBI agents interview imprisoned serial killers to build the bureau's first behavioral science unit. Cold, talk-driven criminal psychology.",
	},
	{
		ID: "media-030", Title: "Fleabag", Year: "2016", MediaType: "tv",
		Genres: "comedy, drama", Rating: 8.7,
		Overview: "A grieving woman navigates London life while breaking the fourth wall to the audience. Razor-sharp comedy that turns devastating.",
	},
}
