package locale

// Response string tables. Placeholders are filled by the transport layer
// with fmt.Sprintf, so the order of %-verbs is part of the key's contract.
var texts = map[string]map[string]string{
	"en": {
		"welcome": "🏆 Welcome to the Esports Tournament Bot!\n\nI help manage registrations for VSA and H2H tournaments.",
		"instructions": "📝 How to register:\n" +
			"1. Set your team name: Bot, my nick TeamName\n" +
			"2. Set your VSA rating: Bot, my VSA rating 42\n" +
			"3. Set your H2H rating: Bot, my H2H rating 38\n\n" +
			"⚠️ Your registration will need admin confirmation to be finalized.\n\n" +
			"🎮 You can register for both tournaments using the same team name.",
		"help_header": "🤖 Bot commands:",
		"admin_help": "👑 Admin commands:\n" +
			"• /list — view all registrations\n" +
			"• /stats — view statistics\n" +
			"• /export — export data to JSON\n" +
			"• /clear confirm — clear all data",

		"help_button":     "📖 Help",
		"examples_button": "💡 Examples",

		"team_name_saved":       "✅ Team name saved: %s",
		"next_step_rating":      "Now set your tournament rating using:\n• Bot, my VSA rating X\n• Bot, my H2H rating X",
		"rating_saved":          "✅ %s rating saved: %d ⭐",
		"awaiting_confirmation": "⏳ Your registration is awaiting admin confirmation.",
		"confirmed":             "✅ Registration confirmed for @%s in %s: %s (%d ⭐)",

		"unrecognized":      "❓ I didn't understand that command. Use /help for examples.",
		"validation_failed": "❌ Validation error: %s",
		"rate_limited":      "⚠️ Too many submissions. Please wait a moment and try again.",
		"incomplete":        "❌ Registration for @%s in %s is incomplete: team name and rating are both required.",
		"no_pending":        "❌ No pending registration found for @%s",
		"already_confirmed": "❌ @%s is already confirmed in %s. Resubmit and confirm with force to overwrite.",
		"not_authorized":    "⛔ This action is only available to administrators.",
		"bad_username":      "❌ That doesn't look like a valid username.",

		"no_registrations":  "📝 No registrations found.",
		"pending_header":    "⏳ Pending confirmations:",
		"cleared":           "🗑️ All tournament data has been cleared.",
		"clear_confirm_ask": "⚠️ This will delete ALL tournament data. Use /clear confirm to proceed.",
		"export_done":       "📄 Tournament data exported successfully.",
		"expired_note":      "Pending entries expire after %s without confirmation.",
	},

	"ru": {
		"welcome": "🏆 Добро пожаловать в бота турниров!\n\nЯ помогаю управлять регистрациями на турниры VSA и H2H.",
		"instructions": "📝 Как зарегистрироваться:\n" +
			"1. Укажите название команды: Бот, мой ник НазваниеКоманды\n" +
			"2. Укажите VSA рейтинг: Бот, мой рекорд в VSA 42\n" +
			"3. Укажите H2H рейтинг: Бот, мой рекорд в H2H 38\n\n" +
			"⚠️ Ваша регистрация требует подтверждения администратора.\n\n" +
			"🎮 Вы можете зарегистрироваться в обоих турнирах с одним названием команды.",
		"help_header": "🤖 Команды бота:",
		"admin_help": "👑 Команды администратора:\n" +
			"• /list — просмотр всех регистраций\n" +
			"• /stats — просмотр статистики\n" +
			"• /export — экспорт данных в JSON\n" +
			"• /clear confirm — очистить все данные",

		"help_button":     "📖 Помощь",
		"examples_button": "💡 Примеры",

		"team_name_saved":       "✅ Название команды сохранено: %s",
		"next_step_rating":      "Теперь укажите ваш рейтинг турнира:\n• Бот, мой рекорд в VSA X\n• Бот, мой рекорд в H2H X",
		"rating_saved":          "✅ Рейтинг %s сохранен: %d ⭐",
		"awaiting_confirmation": "⏳ Ваша регистрация ожидает подтверждения администратора.",
		"confirmed":             "✅ Регистрация подтверждена для @%s в %s: %s (%d ⭐)",

		"unrecognized": "❓ Не понял команду. Используйте:\n" +
			"• Бот, мой ник НазваниеКоманды\n" +
			"• Бот, мой рекорд в VSA 99\n" +
			"• Бот, мой рекорд в H2H 99\n\n" +
			"Или отправьте /help для справки.",
		"validation_failed": "❌ Ошибка валидации: %s",
		"rate_limited":      "⚠️ Слишком много заявок. Подождите немного и попробуйте снова.",
		"incomplete":        "❌ Регистрация @%s в %s не завершена: нужны и название команды, и рейтинг.",
		"no_pending":        "❌ Не найдено ожидающей регистрации для @%s",
		"already_confirmed": "❌ @%s уже подтверждён в %s. Для перезаписи отправьте заявку заново и подтвердите с force.",
		"not_authorized":    "⛔ Это действие доступно только администраторам.",
		"bad_username":      "❌ Это не похоже на корректное имя пользователя.",

		"no_registrations":  "📝 Регистраций не найдено.",
		"pending_header":    "⏳ Ожидают подтверждения:",
		"cleared":           "🗑️ Все данные турнира были очищены.",
		"clear_confirm_ask": "⚠️ Это удалит ВСЕ данные турнира. Используйте /clear confirm для продолжения.",
		"export_done":       "📄 Данные турнира успешно экспортированы.",
		"expired_note":      "Неподтверждённые заявки удаляются через %s.",
	},
}
