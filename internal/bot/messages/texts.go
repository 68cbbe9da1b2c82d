package messages

import (
	"fmt"
	"strings"
)

// Static bot copy. Screens the admin can edit (welcome, policy,
// payment) live in the settings row, everything else is fixed here.

const (
	PolicyFallbackText = "📄 Перед началом работы ознакомьтесь с политикой обработки персональных данных и подтвердите согласие."

	WelcomeFallbackText = "🎨 Добро пожаловать на курс рисования!\n\nРасскажите немного о себе:"

	MenuText = "📋 *Главное меню*\n\nВыберите раздел:"

	MenuMyLessons    = "📚 Мои уроки"
	MenuChangeTime   = "⏰ Время уроков"
	MenuAboutCourse  = "ℹ️ О курсе"
	MenuSubscription = "💎 Моя подписка"

	ChooseTimeText = "⏰ В какое время вам удобно получать уроки?\nКаждый день в выбранный час будет приходить новый урок."

	TimeSavedText = "✅ Готово! Уроки будут приходить в %s."

	AboutCourseText = "ℹ️ *О курсе*\n\nПошаговый курс рисования: каждый день вы получаете видеоурок и практическое задание. Рисунки можно отправлять прямо в чат, преподаватель даст обратную связь."

	NoSubscriptionText = "У вас пока нет активной подписки.\nОформите её, чтобы открыть все уроки курса. 🎨"

	SubscriptionActiveText = "💎 Подписка активна до %s."

	PaymentFallbackText = "💳 Стоимость подписки: [цены].\nВыберите удобный способ оплаты:"

	PaymentRequestOpenedText = "📝 Заявка на оплату создана!\n\nСпособ: %s\nСумма: %d %s\n\nПосле оплаты нажмите «Я оплатил», администратор подтвердит платёж."

	PaymentAlreadyPendingText = "У вас уже есть открытая заявка на оплату. Администратор проверит её в ближайшее время."

	PaymentCheckText = "⏳ Заявка отправлена администратору. Доступ откроется сразу после подтверждения."

	PaymentDeclinedText = "Заявка отменена. Вы всегда можете вернуться к оплате через /menu."

	PaymentSuccessText = "🎉 Оплата получена! Подписка активирована, премиум-уроки открыты.\n\nЗавтра придёт следующий урок, или загляните в /menu."

	PaymentFailedText = "😔 Платёж не прошёл. Попробуйте ещё раз или выберите другой способ оплаты через /menu."

	PaymentRejectedText = "❌ Администратор не смог подтвердить вашу оплату. Если вы уверены, что платёж прошёл, свяжитесь с поддержкой."

	RequestAlreadyProcessedText = "Заявка уже обработана."

	ManualGrantText = "🎁 Вам открыт доступ к курсу на %d дней! Приятного рисования!"

	DrawingSavedText = "🖼 Рисунок сохранён! Преподаватель посмотрит его и оставит комментарий."

	DrawingNoAccessText = "Чтобы отправлять рисунки на проверку, нужен доступ к текущему уроку."

	DrawingUnexpectedText = "Сейчас нет открытого практического задания. Рисунок можно прислать после урока с заданием. ✏️"

	ResetDoneText = "🔄 Прогресс сброшен. Нажмите /start, чтобы начать заново."

	ReengagementText = "👋 Привет! Давно не видели вас на курсе. Новый урок уже ждёт — загляните в /menu!"

	AdminOnlyText = "Эта команда доступна только администратору."

	InternalErrorText = "Произошла внутренняя ошибка. Попробуйте ещё раз чуть позже."

	StartFirstText = "Нажмите /start, чтобы начать."
)

// SubstitutePrice fills the "[цены]" placeholder the admin uses in
// editable payment texts.
func SubstitutePrice(text string, price int, currency string) string {
	return strings.ReplaceAll(text, "[цены]", fmt.Sprintf("%d %s", price, currency))
}

// LessonCaption renders the lesson intro message.
func LessonCaption(number int, title, description string) string {
	caption := fmt.Sprintf("📚 *Урок %d: %s*", number, title)
	if description != "" {
		caption += "\n\n" + description
	}
	return caption + "\n\nПриступим!"
}

// PracticeCaption renders the practice assignment message.
func PracticeCaption(practice string) string {
	return "✏️ *Практическое задание:*\n\n" + practice + "\n\nПосле выполнения отправьте свой рисунок в чат!"
}

// AdminPaymentAlert renders the admin notification for a new payment
// request, with inline confirm/reject buttons attached by the caller.
func AdminPaymentAlert(userName string, telegramID int64, methodName string, price int, currency string) string {
	return fmt.Sprintf(
		"💰 *Новая заявка на оплату*\n\nПользователь: %s (ID %d)\nСпособ: %s\nСумма: %d %s",
		userName, telegramID, methodName, price, currency,
	)
}
