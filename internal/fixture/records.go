// Package fixture 提供测试共用的小型电影语料。
package fixture

import (
	"strconv"

	"github.com/rushteam/simrec/core"
)

// Movies 返回一份覆盖多个类型、语言与国家的小型语料。
func Movies() []core.Record {
	return []core.Record{
		{MovieID: 1, Title: "Star Voyage", Genres: "Science Fiction, Adventure", Cast: "Ann Lee, Bob Stone, Carl Vance", Director: "Dana Moss",
			ProductionCompanies: "Orbit Films", ProductionCountries: "United States of America", SpokenLanguages: "English",
			Overview: "A crew of explorers travels through a wormhole to find a new home for humanity among distant stars.",
			Tagline:  "Beyond the stars lies home", Keywords: "space, wormhole, astronaut, future"},
		{MovieID: 2, Title: "Star Voyage II", Genres: "Science Fiction, Adventure", Cast: "Ann Lee, Bob Stone, Eve Park", Director: "Dana Moss",
			ProductionCompanies: "Orbit Films", ProductionCountries: "United States of America", SpokenLanguages: "English",
			Overview: "The explorers return through the wormhole when their new home among the stars is threatened by an alien fleet.",
			Tagline:  "The stars strike back", Keywords: "space, alien, astronaut, sequel"},
		{MovieID: 3, Title: "Robot Dawn", Genres: "Science Fiction, Action", Cast: "Frank Hill, Gina Ray", Director: "Hugo Lint",
			ProductionCompanies: "Steel Works", ProductionCountries: "United Kingdom", SpokenLanguages: "English",
			Overview: "An army of robots rises against the city and a lone engineer must shut down the machine network.",
			Tagline:  "Machines never sleep", Keywords: "robot, artificial intelligence, dystopia"},
		{MovieID: 4, Title: "Paris Hearts", Genres: "Romance, Comedy", Cast: "Ines Blanc, Jules Marceau", Director: "Kim Laval",
			ProductionCompanies: "Rive Gauche", ProductionCountries: "France", SpokenLanguages: "French, English",
			Overview: "Two strangers meet in a small Paris cafe and fall in love over a summer of misunderstandings.",
			Tagline:  "Love finds a way", Keywords: "paris, love, cafe, summer"},
		{MovieID: 5, Title: "Paris Hearts Again", Genres: "Romance, Comedy", Cast: "Ines Blanc, Jules Marceau, Leo Petit", Director: "Kim Laval",
			ProductionCompanies: "Rive Gauche", ProductionCountries: "France", SpokenLanguages: "French",
			Overview: "Years later the couple return to the Paris cafe where they first fell in love.",
			Tagline:  "Love returns", Keywords: "paris, love, cafe, reunion"},
		{MovieID: 6, Title: "Desert Gold", Genres: "Western, Adventure", Cast: "Mona Reyes, Nick Cole", Director: "Omar Diaz",
			ProductionCompanies: "Mesa Pictures", ProductionCountries: "Mexico, United States of America", SpokenLanguages: "Spanish, English",
			Overview: "Outlaws race across the desert to recover stolen gold before the sheriff closes the border.",
			Tagline:  "Gold is worth dying for", Keywords: "desert, gold, outlaw, sheriff"},
		{MovieID: 7, Title: "Deep Blue Hunt", Genres: "Thriller, Adventure", Cast: "Paul Otto, Quinn Sato", Director: "Rita Fox",
			ProductionCompanies: "Harbor Light", ProductionCountries: "Australia", SpokenLanguages: "English",
			Overview: "A marine biologist hunts a giant shark that terrorizes a remote island fishing village.",
			Tagline:  "Do not go back in the water", Keywords: "shark, ocean, island, biologist"},
		{MovieID: 8, Title: "The Quiet Ledger", Genres: "Drama, Crime", Cast: "Sam Ward, Tia Novak", Director: "Uma Brandt",
			ProductionCompanies: "Ledger House", ProductionCountries: "Germany", SpokenLanguages: "German",
			Overview: "An accountant discovers a money laundering scheme inside the bank where she has worked for decades.",
			Tagline:  "Every number tells a story", Keywords: "bank, fraud, accountant, money"},
	}
}

// Empty 返回一条所有字段都为空的记录。
func Empty(id int64) core.Record {
	return core.Record{MovieID: id, Title: "Untitled"}
}

// Clone 返回除 ID 与标题外元数据完全相同的记录。
func Clone(rec core.Record, id int64) core.Record {
	rec.MovieID = id
	rec.Title = rec.Title + " (" + strconv.FormatInt(id, 10) + ")"
	return rec
}
