package main

import (
	"encoding/json"
	"log"

	"ecolearn/internal/config"
	"ecolearn/internal/database"
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
	"ecolearn/internal/service"
)

// Seeds the database with the built-in courses plus a starter set of
// standalone lessons and games. Safe to run repeatedly.
func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	courseService := service.NewCourseService(courseRepo, progressRepo, userRepo, nil, nil)
	if err := courseService.EnsureSeeded(); err != nil {
		log.Fatalf("Failed to seed courses: %v", err)
	}

	if err := seedLessons(activityRepo); err != nil {
		log.Fatalf("Failed to seed lessons: %v", err)
	}
	if err := seedGames(activityRepo); err != nil {
		log.Fatalf("Failed to seed games: %v", err)
	}

	log.Println("Seeding completed")
}

func seedLessons(repo *repository.ActivityRepository) error {
	n, err := repo.CountLessons()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Lessons already present (%d), skipping", n)
		return nil
	}

	lessons := []models.Lesson{
		{
			Title:       "Why We Sort Our Trash",
			Description: "How separating waste keeps materials in use",
			Content:     json.RawMessage(`{"sections":["What happens to mixed waste","Paper, plastic, glass and metal","Your bin at home"]}`),
			Category:    models.CategoryRecycling,
			Difficulty:  "beginner",
			Duration:    10,
			Points:      20,
			SortOrder:   1,
			IsActive:    true,
		},
		{
			Title:       "Every Drop Counts",
			Description: "Where tap water comes from and how not to waste it",
			Content:     json.RawMessage(`{"sections":["The journey of a water drop","Leaks and drips","Shorter showers"]}`),
			Category:    models.CategoryWater,
			Difficulty:  "beginner",
			Duration:    10,
			Points:      20,
			SortOrder:   2,
			IsActive:    true,
		},
		{
			Title:       "Switch It Off",
			Description: "Saving electricity in your classroom and home",
			Content:     json.RawMessage(`{"sections":["Where electricity comes from","Phantom power","Lights, screens and chargers"]}`),
			Category:    models.CategoryEnergy,
			Difficulty:  "beginner",
			Duration:    12,
			Points:      20,
			SortOrder:   3,
			IsActive:    true,
		},
		{
			Title:       "Our Warming Planet",
			Description: "A gentle introduction to climate change",
			Content:     json.RawMessage(`{"sections":["The greenhouse blanket","What trees do for us","Small actions, big difference"]}`),
			Category:    models.CategoryClimate,
			Difficulty:  "intermediate",
			Duration:    15,
			Points:      25,
			SortOrder:   4,
			IsActive:    true,
		},
	}

	for i := range lessons {
		if _, err := repo.CreateLesson(&lessons[i]); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d lessons", len(lessons))
	return nil
}

func seedGames(repo *repository.ActivityRepository) error {
	n, err := repo.CountGames()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Games already present (%d), skipping", n)
		return nil
	}

	games := []models.Game{
		{
			Title:       "Recycling Rush",
			Description: "Drag each item into the right bin before time runs out",
			Type:        "sorting",
			Category:    models.CategoryRecycling,
			Difficulty:  "beginner",
			GameData:    json.RawMessage(`{"bins":["paper","plastic","glass","organic"],"items":12}`),
			Points:      20,
			TimeLimit:   90,
			IsActive:    true,
		},
		{
			Title:       "Leak Hunter",
			Description: "Find the dripping taps hidden around the house",
			Type:        "hidden-object",
			Category:    models.CategoryWater,
			Difficulty:  "beginner",
			GameData:    json.RawMessage(`{"scenes":3,"leaksPerScene":4}`),
			Points:      20,
			TimeLimit:   120,
			IsActive:    true,
		},
		{
			Title:       "Power Down Puzzle",
			Description: "Switch off every appliance using the fewest moves",
			Type:        "puzzle",
			Category:    models.CategoryEnergy,
			Difficulty:  "intermediate",
			GameData:    json.RawMessage(`{"levels":5,"movesPar":[3,4,4,5,6]}`),
			Points:      25,
			TimeLimit:   0,
			IsActive:    true,
		},
		{
			Title:       "Carbon Quiz Dash",
			Description: "Answer climate questions to keep the glacier frozen",
			Type:        "quiz-race",
			Category:    models.CategoryClimate,
			Difficulty:  "intermediate",
			GameData:    json.RawMessage(`{"questions":10,"secondsPerQuestion":15}`),
			Points:      25,
			TimeLimit:   150,
			IsActive:    true,
		},
	}

	for i := range games {
		if _, err := repo.CreateGame(&games[i]); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d games", len(games))
	return nil
}
