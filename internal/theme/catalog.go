package theme

const (
	CategoryWedding   = "wedding"
	CategoryFantasy   = "fantasy"
	CategoryCultural  = "cultural"
	CategoryAdventure = "adventure"
	CategorySeasonal  = "seasonal"
	CategoryArtistic  = "artistic"
)

var catalog = []Theme{
	{
		ID:             "beach-wedding",
		Name:           "Beach Wedding",
		Description:    "Romantic seaside wedding with ocean views",
		PreviewImage:   "/themes/beach-wedding.jpg",
		ReferenceImage: "/previewImage/1.Beach.jpg",
		ThemeImage:     "/themeImage/1.Beach.jpg",
		Category:       CategoryWedding,
		Face:           FaceStrict,
		Subject:        "a romantic beach wedding portrait",
		Attire: []string{
			"Women: a flowing white beach wedding dress, light and elegant",
			"Men: a light-colored suit or formal beach attire",
		},
		Scene: []string{
			"Soft golden hour lighting with warm sunset tones",
			"Background becomes a beach with ocean waves and sand",
			"Pose may be adjusted for a romantic composition",
		},
		Style: []string{"Tropical, breezy and romantic", "Light, airy beach wedding feeling"},
	},
	{
		ID:             "cherry-blossom-anime",
		Name:           "Cherry Blossom Anime",
		Description:    "Japanese anime style with cherry blossoms",
		PreviewImage:   "/themes/anime-illustrated.jpg",
		ReferenceImage: "/previewImage/2.Cherry Blossom Japanese Anime.jpg",
		ThemeImage:     "/themeImage/2.Cherry Blossom Japanese Anime.jpg",
		Category:       CategoryArtistic,
		Face:           FaceStylized,
		Subject:        "Japanese anime style with cherry blossoms",
		Attire: []string{
			"Elegant Japanese-inspired attire or modern anime fashion",
		},
		Scene: []string{
			"Render everything in anime/manga art style",
			"Anime shading, highlights and color palette",
			"Background features sakura trees in full bloom with falling petals",
		},
		Style: []string{"Clean line work with vibrant anime colors", "Romantic Japanese spring atmosphere"},
	},
	{
		ID:             "game-of-thrones",
		Name:           "Game of Thrones Fantasy",
		Description:    "Epic medieval fantasy with royal attire",
		PreviewImage:   "/themes/fairytale-fantasy.jpg",
		ReferenceImage: "/previewImage/3.Game of Thrones.jpg",
		ThemeImage:     "/themeImage/3.Game of Thrones.jpg",
		Category:       CategoryFantasy,
		Face:           FaceStrict,
		Subject:        "an epic medieval fantasy portrait",
		Attire: []string{
			"Medieval robes, fur cloaks and royal garments",
			"Rich fabrics, jeweled accessories, crowns or circlets",
		},
		Scene: []string{
			"Dramatic cinematic lighting with moody tones",
			"Background becomes a castle, throne room or winter landscape",
			"A powerful, regal pose",
		},
		Style: []string{"Epic medieval fantasy atmosphere", "Regal composition"},
	},
	{
		ID:             "garden-party-elegant",
		Name:           "Elegant Garden Party",
		Description:    "Sophisticated garden celebration with floral elegance",
		PreviewImage:   "/themes/garden-party.jpg",
		ReferenceImage: "/previewImage/4.Garden Party 1.jpg",
		ThemeImage:     "/themeImage/4.Garden Party 1.jpg",
		Category:       CategoryWedding,
		Face:           FaceStrict,
		Subject:        "an elegant garden party portrait",
		Attire: []string{
			"Women: a sophisticated cocktail or garden party dress",
			"Men: a tailored light suit",
		},
		Scene: []string{
			"Soft natural daylight",
			"Background becomes a manicured garden with flowers and greenery",
		},
		Style: []string{"Refined, floral and sophisticated", "Gentle pastel palette"},
	},
	{
		ID:             "garden-party-romantic",
		Name:           "Romantic Garden Party",
		Description:    "Dreamy garden wedding with romantic florals",
		PreviewImage:   "/themes/garden-party.jpg",
		ReferenceImage: "/previewImage/5.Garden Party 2.jpg",
		ThemeImage:     "/themeImage/5.Garden Party 2.jpg",
		Category:       CategoryWedding,
		Face:           FaceStrict,
		Subject:        "a romantic garden party wedding portrait",
		Attire: []string{
			"Women: a romantic wedding gown with floral details",
			"Men: a classic wedding suit with a boutonniere",
		},
		Scene: []string{
			"Dreamy soft-focus lighting",
			"Background becomes a blooming garden with floral arches",
		},
		Style: []string{"Dreamy, romantic and soft", "Blush and ivory tones"},
	},
	{
		ID:             "halloween-spooky",
		Name:           "Halloween Spooky",
		Description:    "Festive Halloween with spooky atmosphere",
		PreviewImage:   "/themes/cultural-traditional.jpg",
		ReferenceImage: "/previewImage/6.Halloween.jpg",
		ThemeImage:     "/themeImage/6.Halloween.jpg",
		Category:       CategorySeasonal,
		Face:           FaceStrict,
		Subject:        "a festive Halloween portrait",
		Attire: []string{
			"Stylish Halloween costumes: witches, vampires or gothic formal wear",
		},
		Scene: []string{
			"Moody orange and purple lighting",
			"Background becomes a haunted setting with pumpkins and candles",
		},
		Style: []string{"Playfully spooky, not gory", "Festive autumn night atmosphere"},
	},
	{
		ID:             "harry-potter-magic",
		Name:           "Harry Potter Magic",
		Description:    "Magical wizarding world with Hogwarts aesthetic",
		PreviewImage:   "/themes/fairytale-fantasy.jpg",
		ReferenceImage: "/previewImage/7.Harry Porter.jpg",
		ThemeImage:     "/themeImage/7.Harry Porter.jpg",
		Category:       CategoryFantasy,
		Face:           FaceStrict,
		Subject:        "a magical wizarding world portrait",
		Attire: []string{
			"Wizard school robes with house scarves",
			"Wands and magical accessories",
		},
		Scene: []string{
			"Warm candlelit lighting with floating sparkles",
			"Background becomes a great hall or castle corridor",
		},
		Style: []string{"Enchanted, whimsical atmosphere", "Rich warm tones"},
	},
	{
		ID:             "superhero-epic",
		Name:           "Superhero Epic",
		Description:    "Powerful superhero with dramatic cityscape",
		PreviewImage:   "/themes/cinematic-movie.jpg",
		ReferenceImage: "/previewImage/8.Superhero Theme.jpg",
		ThemeImage:     "/themeImage/8.Superhero Theme.jpg",
		Category:       CategoryFantasy,
		Face:           FaceIdentity,
		Subject:        "an epic superhero portrait",
		Attire: []string{
			"A sleek superhero suit with cape or tactical gear",
			"Bold colors and an emblem",
			"Two people become a duo in complementary costumes",
		},
		Scene: []string{
			"Dramatic cinematic lighting",
			"Background becomes a city skyline, rooftop or dramatic urban setting",
			"Heroic, action-ready pose",
		},
		Style: []string{"Blockbuster superhero movie look", "Bold colors"},
	},
	{
		ID:             "mountain-summit",
		Name:           "Mountain Summit",
		Description:    "Adventurous mountain peak with stunning views",
		PreviewImage:   "/themes/beach-sunset.jpg",
		ReferenceImage: "/previewImage/9.Top of Mountain.jpg",
		ThemeImage:     "/themeImage/9.Top of Mountain.jpg",
		Category:       CategoryAdventure,
		Face:           FaceStrict,
		Subject:        "an adventurous mountain summit portrait",
		Attire: []string{
			"Stylish outdoor hiking and mountaineering gear",
		},
		Scene: []string{
			"Crisp high-altitude sunlight",
			"Background becomes a summit with sweeping peaks and clouds below",
		},
		Style: []string{"Triumphant and adventurous", "Expansive sky"},
	},
	{
		ID:             "indian-cultural",
		Name:           "Indian Cultural Wedding",
		Description:    "Rich Indian cultural attire with traditional elegance",
		PreviewImage:   "/themes/cultural-traditional.jpg",
		ReferenceImage: "/previewImage/10.Indian Cultural.jpg",
		ThemeImage:     "/themeImage/10.Indian Cultural.jpg",
		Category:       CategoryCultural,
		Face:           FaceIdentity,
		Subject:        "a rich Indian cultural wedding portrait",
		Attire: []string{
			"Women: a saree or lehenga with intricate details and jewelry",
			"Men: a sherwani or traditional Indian formal wear",
		},
		Scene: []string{
			"Rich, warm celebratory lighting",
			"Background becomes an ornate Indian wedding venue",
		},
		Style: []string{"Reds, golds and jewel tones", "Festive and celebratory"},
	},
	{
		ID:             "chinese-traditional",
		Name:           "Traditional Chinese Wedding",
		Description:    "Elegant Chinese cultural attire with traditional charm",
		PreviewImage:   "/themes/cultural-traditional.jpg",
		ReferenceImage: "/previewImage/11.Traditional Chinese.jpg",
		ThemeImage:     "/themeImage/11.Traditional Chinese.jpg",
		Category:       CategoryCultural,
		Face:           FaceIdentity,
		Subject:        "an elegant traditional Chinese wedding portrait",
		Attire: []string{
			"Women: a qipao or qun kwa with gold embroidery",
			"Men: a traditional changshan or magua",
		},
		Scene: []string{
			"Warm festive lighting",
			"Background becomes a traditional hall with red lanterns and double happiness decor",
		},
		Style: []string{"Red and gold palette", "Elegant traditional charm"},
	},
	{
		ID:             "malay-traditional",
		Name:           "Traditional Malay Wedding",
		Description:    "Beautiful Malay cultural attire with traditional elegance",
		PreviewImage:   "/themes/cultural-traditional.jpg",
		ReferenceImage: "/previewImage/12.Traditional Malay Cultural.jpg",
		ThemeImage:     "/themeImage/12.Traditional Malay Cultural.jpg",
		Category:       CategoryCultural,
		Face:           FaceIdentity,
		Subject:        "a beautiful traditional Malay wedding portrait",
		Attire: []string{
			"Women: a baju kurung or kebaya with songket",
			"Men: a baju melayu with samping and songkok",
		},
		Scene: []string{
			"Soft warm lighting",
			"Background becomes a decorated pelamin dais",
		},
		Style: []string{"Gold and jewel tones", "Graceful and ceremonial"},
	},
	{
		ID:             "winter-wonderland",
		Name:           "Winter Wonderland",
		Description:    "Magical snowy winter scene with elegant winter attire",
		PreviewImage:   "/themes/fairytale-fantasy.jpg",
		ReferenceImage: "/previewImage/13.Winter Wonderland.jpg",
		ThemeImage:     "/themeImage/13.Winter Wonderland.jpg",
		Category:       CategorySeasonal,
		Face:           FaceStrict,
		Subject:        "a magical winter wonderland portrait",
		Attire: []string{
			"Elegant winter coats, scarves and faux fur",
		},
		Scene: []string{
			"Cool soft light with gentle snowfall",
			"Background becomes a snowy forest with twinkling lights",
		},
		Style: []string{"Icy blues and silvers", "Magical and serene"},
	},
	{
		ID:             "military-formal",
		Name:           "Military Formal",
		Description:    "Distinguished military formal attire with honor",
		PreviewImage:   "/themes/black-white-elegance.jpg",
		ReferenceImage: "/previewImage/14.Military.jpg",
		ThemeImage:     "/themeImage/14.Military.jpg",
		Category:       CategoryAdventure,
		Face:           FaceStrict,
		Subject:        "a distinguished military formal portrait",
		Attire: []string{
			"Formal dress uniforms with medals and insignia",
		},
		Scene: []string{
			"Classic studio portrait lighting",
			"Background becomes a formal ceremonial setting with flags",
		},
		Style: []string{"Honorable and dignified", "Crisp, formal composition"},
	},
	{
		ID:             "garden-wedding-classic",
		Name:           "Classic Garden Wedding",
		Description:    "Timeless garden wedding with natural beauty",
		PreviewImage:   "/themes/classic-wedding.jpg",
		ReferenceImage: "/previewImage/15. Garden Wedding.jpg",
		ThemeImage:     "/themeImage/15. Garden Wedding.jpg",
		Category:       CategoryWedding,
		Face:           FaceStrict,
		Subject:        "a classic garden wedding portrait",
		Attire: []string{
			"Women: a timeless white wedding gown",
			"Men: a classic dark suit or tuxedo",
		},
		Scene: []string{
			"Natural soft daylight",
			"Background becomes a lush garden with a floral arch",
		},
		Style: []string{"Timeless and elegant", "Natural greens and whites"},
	},
	{
		ID:             "hot-air-balloon",
		Name:           "Hot Air Balloon Adventure",
		Description:    "Whimsical hot air balloon field with colorful balloons",
		PreviewImage:   "/themes/fairytale-fantasy.jpg",
		ReferenceImage: "/previewImage/16.Hot air balloon field.jpg",
		ThemeImage:     "/themeImage/16.Hot air balloon field.jpg",
		Category:       CategoryAdventure,
		Face:           FaceStrict,
		Subject:        "a whimsical hot air balloon adventure portrait",
		Attire: []string{
			"Chic casual adventure outfits in warm tones",
		},
		Scene: []string{
			"Sunrise golden light",
			"Background becomes an open field with many colorful hot air balloons",
		},
		Style: []string{"Whimsical and uplifting", "Vibrant balloon colors"},
	},
	{
		ID:             "jungle-cartoon",
		Name:           "Jungle Cartoon Adventure",
		Description:    "Playful cartoon jungle with vibrant colors",
		PreviewImage:   "/themes/watercolor-art.jpg",
		ReferenceImage: "/previewImage/17. Jungle Cartoon.jpg",
		ThemeImage:     "/themeImage/17. Jungle Cartoon.jpg",
		Category:       CategoryArtistic,
		Face:           FaceStylized,
		Subject:        "a playful cartoon jungle adventure portrait",
		Attire: []string{
			"Cartoon explorer outfits",
		},
		Scene: []string{
			"Render everything in a bright 3D cartoon style",
			"Background becomes a lush cartoon jungle with friendly animals",
		},
		Style: []string{"Playful and vibrant", "Rounded, expressive cartoon features"},
	},
	{
		ID:             "sand-dunes-wedding",
		Name:           "Desert Sand Dunes Wedding",
		Description:    "Romantic desert wedding with golden sand dunes",
		PreviewImage:   "/themes/beach-sunset.jpg",
		ReferenceImage: "/previewImage/18. Sand Dunes Wedding.jpg",
		ThemeImage:     "/themeImage/18. Sand Dunes Wedding.jpg",
		Category:       CategoryWedding,
		Face:           FaceStrict,
		Subject:        "a romantic desert sand dunes wedding portrait",
		Attire: []string{
			"Women: a flowing wedding gown catching the wind",
			"Men: a light linen suit",
		},
		Scene: []string{
			"Warm low sunset light",
			"Background becomes rolling golden sand dunes",
		},
		Style: []string{"Romantic and cinematic", "Golden desert palette"},
	},
	{
		ID:             "singapore-coffee-shop",
		Name:           "Singapore Coffee Shop",
		Description:    "Nostalgic Singapore kopitiam with local charm",
		PreviewImage:   "/themes/vintage-romance.jpg",
		ReferenceImage: "/previewImage/19. Singapore Coffee Shop.jpg",
		ThemeImage:     "/themeImage/19. Singapore Coffee Shop.jpg",
		Category:       CategoryCultural,
		Face:           FaceStrict,
		Subject:        "a nostalgic Singapore coffee shop portrait",
		Attire: []string{
			"Retro casual outfits with a local vintage flair",
		},
		Scene: []string{
			"Warm ambient cafe lighting",
			"Background becomes a heritage kopitiam with marble tables and tiled floors",
		},
		Style: []string{"Nostalgic and warm", "Film-like vintage tones"},
	},
	{
		ID:             "ski-resort",
		Name:           "Ski Resort Winter",
		Description:    "Snowy ski resort with winter sports elegance",
		PreviewImage:   "/themes/fairytale-fantasy.jpg",
		ReferenceImage: "/previewImage/20.Ski Resort.jpg",
		ThemeImage:     "/themeImage/20.Ski Resort.jpg",
		Category:       CategorySeasonal,
		Face:           FaceStrict,
		Subject:        "an elegant ski resort winter portrait",
		Attire: []string{
			"Stylish ski jackets, goggles on the head and knit hats",
		},
		Scene: []string{
			"Bright alpine daylight",
			"Background becomes snowy slopes with a chalet and ski lifts",
		},
		Style: []string{"Fresh and sporty", "Crisp whites and blues"},
	},
	{
		ID:             "tropical-beach-wedding",
		Name:           "Tropical Beach Wedding",
		Description:    "Paradise tropical beach wedding with palm trees",
		PreviewImage:   "/themes/beach-sunset.jpg",
		ReferenceImage: "/previewImage/21. Tropical beach wedding.jpg",
		ThemeImage:     "/themeImage/21. Tropical beach wedding.jpg",
		Category:       CategoryWedding,
		Face:           FaceStrict,
		Subject:        "a paradise tropical beach wedding portrait",
		Attire: []string{
			"Women: a light tropical wedding dress with floral accents",
			"Men: a linen shirt and trousers or a light suit",
		},
		Scene: []string{
			"Bright tropical sunlight",
			"Background becomes a turquoise lagoon with palm trees and white sand",
		},
		Style: []string{"Lush, vivid paradise colors", "Relaxed, joyful mood"},
	},
}
